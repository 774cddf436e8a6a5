package migration

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}

func migrationFS(files map[string]string) fstest.MapFS {
	mapFS := fstest.MapFS{}
	for name, content := range files {
		mapFS[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return mapFS
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return count == 1
}

func TestCurrentVersionFreshDatabase(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql": "CREATE TABLE profiles (id TEXT PRIMARY KEY);",
	}))

	version, err := runner.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 on fresh database, got %d", version)
	}
}

func TestReadMigrationsSorted(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, migrationFS(map[string]string{
		"003_vaults.sql":   "CREATE TABLE vaults (id TEXT);",
		"001_init.sql":     "CREATE TABLE profiles (id TEXT);",
		"002_chapters.sql": "CREATE TABLE chapters (id TEXT);",
	}))

	migrations, err := runner.ReadMigrations()
	if err != nil {
		t.Fatalf("ReadMigrations failed: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	wantNames := []string{"init", "chapters", "vaults"}
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %d: expected version %d, got %d", i, i+1, m.Version)
		}
		if m.Name != wantNames[i] {
			t.Errorf("migration %d: expected name %q, got %q", i, wantNames[i], m.Name)
		}
	}
}

func TestApplyFromScratch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql":     "CREATE TABLE profiles (id TEXT PRIMARY KEY, name TEXT);",
		"002_chapters.sql": "CREATE TABLE chapters (id TEXT PRIMARY KEY, profile_id TEXT);",
	}))

	count, err := runner.Apply(nil)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 migrations applied, got %d", count)
	}

	version, err := runner.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	if !tableExists(t, db, "profiles") {
		t.Error("profiles table was not created")
	}
	if !tableExists(t, db, "chapters") {
		t.Error("chapters table was not created")
	}
}

func TestApplyIncremental(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	first := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql": "CREATE TABLE profiles (id TEXT PRIMARY KEY);",
	}))
	if _, err := first.Apply(nil); err != nil {
		t.Fatalf("Apply (1st) failed: %v", err)
	}

	// A later build ships one more migration.
	second := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql":     "CREATE TABLE profiles (id TEXT PRIMARY KEY);",
		"002_chapters.sql": "CREATE TABLE chapters (id TEXT PRIMARY KEY);",
	}))
	count, err := second.Apply(nil)
	if err != nil {
		t.Fatalf("Apply (2nd) failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 migration applied, got %d", count)
	}

	version, err := second.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
}

func TestApplyNoOpWhenCurrent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql": "CREATE TABLE profiles (id TEXT PRIMARY KEY);",
	}))

	if _, err := runner.Apply(nil); err != nil {
		t.Fatalf("Apply (1st) failed: %v", err)
	}

	count, err := runner.Apply(nil)
	if err != nil {
		t.Fatalf("Apply (2nd) failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 migrations applied on second run, got %d", count)
	}
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql": `
			CREATE TABLE profiles (id TEXT PRIMARY KEY);
			THIS IS NOT SQL;
		`,
	}))

	if _, err := runner.Apply(nil); err == nil {
		t.Fatal("Apply should have failed with invalid SQL")
	}

	version, err := runner.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 after failed migration, got %d", version)
	}
	if tableExists(t, db, "profiles") {
		t.Error("profiles table should not exist after rollback")
	}
}

func TestValidateVersionNewerDatabase(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql": "CREATE TABLE profiles (id TEXT PRIMARY KEY);",
	}))

	// Simulate a store written by a newer build.
	if _, err := runner.CurrentVersion(); err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (10)"); err != nil {
		t.Fatalf("failed to set version: %v", err)
	}

	if err := runner.ValidateVersion(); err == nil {
		t.Error("ValidateVersion should have failed with a newer database version")
	}
	if _, err := runner.Apply(nil); err == nil {
		t.Error("Apply should have failed with a newer database version")
	}
}

func TestReadMigrationsRejectsBadFilenames(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, migrationFS(map[string]string{
		"001init.sql": "CREATE TABLE profiles (id TEXT);",
	}))

	if _, err := runner.ReadMigrations(); err == nil {
		t.Error("ReadMigrations should have failed for a filename without an underscore")
	}
}

func TestReadMigrationsRejectsVersionZero(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, migrationFS(map[string]string{
		"000_init.sql": "CREATE TABLE profiles (id TEXT);",
	}))

	if _, err := runner.ReadMigrations(); err == nil {
		t.Error("ReadMigrations should have failed for version 0")
	}
}

func TestReadMigrationsRejectsDuplicateVersions(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql":  "CREATE TABLE profiles (id TEXT);",
		"001_other.sql": "CREATE TABLE chapters (id TEXT);",
	}))

	_, err := runner.ReadMigrations()
	if err == nil {
		t.Fatal("ReadMigrations should have failed for duplicate versions")
	}
	if !strings.Contains(err.Error(), "duplicate migration version") {
		t.Errorf("expected duplicate version error, got: %v", err)
	}
}
