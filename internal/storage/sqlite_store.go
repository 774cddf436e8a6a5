package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/sproutbook/internal/migration"
	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/storage/migrations"
	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"
)

type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path: path,
	}
}

func (s *SQLiteStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize default settings if not present
	if _, err := s.GetSettings(); err != nil {
		defaults := Settings{
			DefaultVaultAges: []int{5, 13, 18},
		}
		if err := s.SaveSettings(defaults); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStore) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'sproutbook init' first")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if _, err := s.runner().Apply(nil); err != nil {
		return err
	}
	return s.runner().ValidateVersion()
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) runner() *migration.Runner {
	return migration.NewRunner(s.db, migrations.FS)
}

func (s *SQLiteStore) runMigrations() error {
	_, err := s.runner().Apply(nil)
	return err
}

func (s *SQLiteStore) GetConfigPath() string {
	return s.path
}

func (s *SQLiteStore) GetDB() *sql.DB {
	return s.db
}

// -- Settings ---------------------------------------------------------------

func (s *SQLiteStore) GetSettings() (Settings, error) {
	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return Settings{}, err
	}
	defer rows.Close()

	settings := Settings{}
	count := 0
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Settings{}, err
		}
		switch key {
		case "active_profile_id":
			settings.ActiveProfileID = value
		case "default_vault_ages":
			if err := json.Unmarshal([]byte(value), &settings.DefaultVaultAges); err != nil {
				return Settings{}, fmt.Errorf("parsing default_vault_ages: %w", err)
			}
		}
		count++
	}

	if count == 0 {
		return Settings{}, fmt.Errorf("settings not found")
	}

	return settings, rows.Err()
}

func (s *SQLiteStore) SaveSettings(settings Settings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	ages, err := json.Marshal(settings.DefaultVaultAges)
	if err != nil {
		return fmt.Errorf("failed to marshal default_vault_ages: %w", err)
	}

	if _, err := stmt.Exec("active_profile_id", settings.ActiveProfileID); err != nil {
		return err
	}
	if _, err := stmt.Exec("default_vault_ages", string(ages)); err != nil {
		return err
	}

	return tx.Commit()
}

// -- Time encoding ----------------------------------------------------------

func dateStr(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: dateStr(*t), Valid: true}
}

func nullStamp(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func nullStr(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func parseDatePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseStampPtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// -- Profiles ---------------------------------------------------------------

func (s *SQLiteStore) SaveProfile(p models.Profile) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO profiles (
			id, name, mode, birthdate, estimated_due_date,
			previous_mode, previous_edd, mode_switched_at,
			show_archived_chapters, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(p.Mode), nullDate(p.Birthdate), nullDate(p.EstimatedDueDate),
		nullStr(string(p.PreviousMode)), nullDate(p.PreviousEDD), nullStamp(p.ModeSwitchedAt),
		p.ShowArchivedChapters, p.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func scanProfile(row interface{ Scan(...any) error }) (models.Profile, error) {
	var p models.Profile
	var mode string
	var birthdate, edd, prevMode, prevEDD, switchedAt sql.NullString
	var createdAt string

	err := row.Scan(&p.ID, &p.Name, &mode, &birthdate, &edd,
		&prevMode, &prevEDD, &switchedAt, &p.ShowArchivedChapters, &createdAt)
	if err != nil {
		return models.Profile{}, err
	}

	p.Mode = models.Mode(mode)
	if prevMode.Valid {
		p.PreviousMode = models.Mode(prevMode.String)
	}
	if p.Birthdate, err = parseDatePtr(birthdate); err != nil {
		return models.Profile{}, err
	}
	if p.EstimatedDueDate, err = parseDatePtr(edd); err != nil {
		return models.Profile{}, err
	}
	if p.PreviousEDD, err = parseDatePtr(prevEDD); err != nil {
		return models.Profile{}, err
	}
	if p.ModeSwitchedAt, err = parseStampPtr(switchedAt); err != nil {
		return models.Profile{}, err
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return models.Profile{}, err
	}

	return p, nil
}

const profileCols = `id, name, mode, birthdate, estimated_due_date,
	previous_mode, previous_edd, mode_switched_at, show_archived_chapters, created_at`

func (s *SQLiteStore) GetProfile(id string) (models.Profile, error) {
	row := s.db.QueryRow("SELECT "+profileCols+" FROM profiles WHERE id = ?", id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return models.Profile{}, fmt.Errorf("profile not found: %s", id)
	}
	return p, err
}

func (s *SQLiteStore) GetAllProfiles() ([]models.Profile, error) {
	rows, err := s.db.Query("SELECT " + profileCols + " FROM profiles ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// -- Chapters ---------------------------------------------------------------

const chapterCols = `id, profile_id, template_id, title, start_date, end_date,
	description, created_at, archived_at`

func (s *SQLiteStore) AddChapter(c models.Chapter) error {
	_, err := s.db.Exec(`
		INSERT INTO chapters (
			id, profile_id, template_id, title, start_date, end_date,
			description, created_at, archived_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ProfileID, c.TemplateID, c.Title, dateStr(c.StartDate), nullDate(c.EndDate),
		c.Description, c.CreatedAt.UTC().Format(time.RFC3339), nullStamp(c.ArchivedAt),
	)
	return err
}

func scanChapter(row interface{ Scan(...any) error }) (models.Chapter, error) {
	var c models.Chapter
	var endDate, description, archivedAt sql.NullString
	var startDate, createdAt string

	err := row.Scan(&c.ID, &c.ProfileID, &c.TemplateID, &c.Title, &startDate, &endDate,
		&description, &createdAt, &archivedAt)
	if err != nil {
		return models.Chapter{}, err
	}

	if c.StartDate, err = parseDate(startDate); err != nil {
		return models.Chapter{}, err
	}
	if c.EndDate, err = parseDatePtr(endDate); err != nil {
		return models.Chapter{}, err
	}
	if description.Valid {
		c.Description = description.String
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return models.Chapter{}, err
	}
	if c.ArchivedAt, err = parseStampPtr(archivedAt); err != nil {
		return models.Chapter{}, err
	}

	return c, nil
}

func (s *SQLiteStore) GetChapter(id string) (models.Chapter, error) {
	row := s.db.QueryRow("SELECT "+chapterCols+" FROM chapters WHERE id = ?", id)
	c, err := scanChapter(row)
	if err == sql.ErrNoRows {
		return models.Chapter{}, fmt.Errorf("chapter not found: %s", id)
	}
	return c, err
}

func (s *SQLiteStore) queryChapters(query string, args ...any) ([]models.Chapter, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []models.Chapter
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

func (s *SQLiteStore) GetChapters(profileID string) ([]models.Chapter, error) {
	return s.queryChapters(
		"SELECT "+chapterCols+" FROM chapters WHERE profile_id = ? ORDER BY start_date, created_at",
		profileID)
}

func (s *SQLiteStore) GetActiveChapters(profileID string) ([]models.Chapter, error) {
	return s.queryChapters(
		"SELECT "+chapterCols+" FROM chapters WHERE profile_id = ? AND archived_at IS NULL ORDER BY start_date, created_at",
		profileID)
}

func (s *SQLiteStore) UpdateChapter(c models.Chapter) error {
	res, err := s.db.Exec(`
		UPDATE chapters SET template_id = ?, title = ?, start_date = ?, end_date = ?,
			description = ?, archived_at = ?
		WHERE id = ?`,
		c.TemplateID, c.Title, dateStr(c.StartDate), nullDate(c.EndDate),
		c.Description, nullStamp(c.ArchivedAt), c.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "chapter", c.ID)
}

func (s *SQLiteStore) ArchiveChapter(id string) error {
	var archivedAt sql.NullString
	err := s.db.QueryRow("SELECT archived_at FROM chapters WHERE id = ?", id).Scan(&archivedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("chapter not found: %s", id)
		}
		return fmt.Errorf("failed to check chapter existence: %w", err)
	}
	if archivedAt.Valid {
		return fmt.Errorf("chapter %s is already archived", id)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec("UPDATE chapters SET archived_at = ? WHERE id = ?", now, id)
	return err
}

func (s *SQLiteStore) UnarchiveChapter(id string) error {
	var archivedAt sql.NullString
	err := s.db.QueryRow("SELECT archived_at FROM chapters WHERE id = ?", id).Scan(&archivedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("chapter not found: %s", id)
		}
		return fmt.Errorf("failed to check chapter existence: %w", err)
	}
	if !archivedAt.Valid {
		return fmt.Errorf("cannot restore a chapter that is not archived: %s", id)
	}

	_, err = s.db.Exec("UPDATE chapters SET archived_at = NULL WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) DeleteChapter(id string) error {
	res, err := s.db.Exec("DELETE FROM chapters WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res, "chapter", id)
}

// -- Milestones -------------------------------------------------------------

const milestoneCols = `id, profile_id, chapter_id, template_id, record_id,
	expected_date, filled_date, status`

func (s *SQLiteStore) AddMilestone(m models.MilestoneInstance) error {
	_, err := s.db.Exec(`
		INSERT INTO milestones (
			id, profile_id, chapter_id, template_id, record_id,
			expected_date, filled_date, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProfileID, nullStr(m.ChapterID), m.TemplateID, nullStr(m.RecordID),
		dateStr(m.ExpectedDate), nullDate(m.FilledDate), string(m.Status),
	)
	return err
}

func scanMilestone(row interface{ Scan(...any) error }) (models.MilestoneInstance, error) {
	var m models.MilestoneInstance
	var chapterID, recordID, filledDate sql.NullString
	var expectedDate, status string

	err := row.Scan(&m.ID, &m.ProfileID, &chapterID, &m.TemplateID, &recordID,
		&expectedDate, &filledDate, &status)
	if err != nil {
		return models.MilestoneInstance{}, err
	}

	if chapterID.Valid {
		m.ChapterID = chapterID.String
	}
	if recordID.Valid {
		m.RecordID = recordID.String
	}
	if m.ExpectedDate, err = parseDate(expectedDate); err != nil {
		return models.MilestoneInstance{}, err
	}
	if m.FilledDate, err = parseDatePtr(filledDate); err != nil {
		return models.MilestoneInstance{}, err
	}
	m.Status = models.MilestoneStatus(status)

	return m, nil
}

func (s *SQLiteStore) GetMilestone(id string) (models.MilestoneInstance, error) {
	row := s.db.QueryRow("SELECT "+milestoneCols+" FROM milestones WHERE id = ?", id)
	m, err := scanMilestone(row)
	if err == sql.ErrNoRows {
		return models.MilestoneInstance{}, fmt.Errorf("milestone not found: %s", id)
	}
	return m, err
}

func (s *SQLiteStore) GetMilestones(profileID string) ([]models.MilestoneInstance, error) {
	rows, err := s.db.Query(
		"SELECT "+milestoneCols+" FROM milestones WHERE profile_id = ? ORDER BY expected_date",
		profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []models.MilestoneInstance
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

func (s *SQLiteStore) UpdateMilestone(m models.MilestoneInstance) error {
	res, err := s.db.Exec(`
		UPDATE milestones SET chapter_id = ?, record_id = ?, expected_date = ?,
			filled_date = ?, status = ?
		WHERE id = ?`,
		nullStr(m.ChapterID), nullStr(m.RecordID), dateStr(m.ExpectedDate),
		nullDate(m.FilledDate), string(m.Status), m.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "milestone", m.ID)
}

func (s *SQLiteStore) ArchiveMilestone(id string) error {
	m, err := s.GetMilestone(id)
	if err != nil {
		return err
	}
	if m.IsArchived() {
		return fmt.Errorf("milestone %s is already archived", id)
	}
	m.Status = models.MilestoneStatusArchived
	return s.UpdateMilestone(m)
}

func (s *SQLiteStore) UnarchiveMilestone(id string) error {
	m, err := s.GetMilestone(id)
	if err != nil {
		return err
	}
	if !m.IsArchived() {
		return fmt.Errorf("cannot restore a milestone that is not archived: %s", id)
	}
	m.Status = m.RestoredStatus()
	return s.UpdateMilestone(m)
}

func (s *SQLiteStore) DeleteMilestone(id string) error {
	res, err := s.db.Exec("DELETE FROM milestones WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res, "milestone", id)
}

// -- Records ----------------------------------------------------------------

const recordCols = `id, profile_id, chapter_id, title, body, created_at`

func (s *SQLiteStore) AddRecord(r models.Record) error {
	_, err := s.db.Exec(`
		INSERT INTO records (id, profile_id, chapter_id, title, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.ProfileID, nullStr(r.ChapterID), r.Title, r.Body,
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func scanRecord(row interface{ Scan(...any) error }) (models.Record, error) {
	var r models.Record
	var chapterID, body sql.NullString
	var createdAt string

	err := row.Scan(&r.ID, &r.ProfileID, &chapterID, &r.Title, &body, &createdAt)
	if err != nil {
		return models.Record{}, err
	}

	if chapterID.Valid {
		r.ChapterID = chapterID.String
	}
	if body.Valid {
		r.Body = body.String
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return models.Record{}, err
	}

	return r, nil
}

func (s *SQLiteStore) GetRecord(id string) (models.Record, error) {
	row := s.db.QueryRow("SELECT "+recordCols+" FROM records WHERE id = ?", id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return models.Record{}, fmt.Errorf("record not found: %s", id)
	}
	return r, err
}

func (s *SQLiteStore) GetRecords(profileID string) ([]models.Record, error) {
	rows, err := s.db.Query(
		"SELECT "+recordCols+" FROM records WHERE profile_id = ? ORDER BY created_at",
		profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) UpdateRecord(r models.Record) error {
	res, err := s.db.Exec(
		"UPDATE records SET chapter_id = ?, title = ?, body = ? WHERE id = ?",
		nullStr(r.ChapterID), r.Title, r.Body, r.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "record", r.ID)
}

// DeleteRecord removes a record and reverts any milestone that linked it back
// to pending, in one transaction.
func (s *SQLiteStore) DeleteRecord(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("record not found: %s", id)
	}

	// Linked milestones lose the record and go back to pending; archived
	// instances stay archived but still drop the dangling link.
	if _, err := tx.Exec(`
		UPDATE milestones SET record_id = NULL, filled_date = NULL, status = ?
		WHERE record_id = ? AND status = ?`,
		string(models.MilestoneStatusPending), id, string(models.MilestoneStatusFilled)); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"UPDATE milestones SET record_id = NULL WHERE record_id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}

// -- Vaults -----------------------------------------------------------------

const vaultCols = `id, profile_id, target_age_years, unlock_date, status`

func (s *SQLiteStore) AddVault(v models.Vault) error {
	_, err := s.db.Exec(`
		INSERT INTO vaults (id, profile_id, target_age_years, unlock_date, status)
		VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.ProfileID, v.TargetAgeYears, nullDate(v.UnlockDate), string(v.Status),
	)
	return err
}

func (s *SQLiteStore) GetVaults(profileID string) ([]models.Vault, error) {
	rows, err := s.db.Query(
		"SELECT "+vaultCols+" FROM vaults WHERE profile_id = ? ORDER BY target_age_years",
		profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vaults []models.Vault
	for rows.Next() {
		var v models.Vault
		var unlockDate sql.NullString
		var status string
		if err := rows.Scan(&v.ID, &v.ProfileID, &v.TargetAgeYears, &unlockDate, &status); err != nil {
			return nil, err
		}
		if v.UnlockDate, err = parseDatePtr(unlockDate); err != nil {
			return nil, err
		}
		v.Status = models.VaultStatus(status)
		vaults = append(vaults, v)
	}
	return vaults, rows.Err()
}

func (s *SQLiteStore) UpdateVault(v models.Vault) error {
	res, err := s.db.Exec(
		"UPDATE vaults SET target_age_years = ?, unlock_date = ?, status = ? WHERE id = ?",
		v.TargetAgeYears, nullDate(v.UnlockDate), string(v.Status), v.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "vault", v.ID)
}

func (s *SQLiteStore) DeleteVault(id string) error {
	res, err := s.db.Exec("DELETE FROM vaults WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res, "vault", id)
}

// -- Transactional change sets ----------------------------------------------

// ApplyRebase writes a full rebase change set in one transaction. Any missing
// row fails the whole set.
func (s *SQLiteStore) ApplyRebase(cs models.RebaseChangeSet) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, u := range cs.Chapters {
		res, err := tx.Exec(
			"UPDATE chapters SET start_date = ?, end_date = ? WHERE id = ?",
			dateStr(u.StartDate), nullDate(u.EndDate), u.ChapterID,
		)
		if err != nil {
			return err
		}
		if err := requireRow(res, "chapter", u.ChapterID); err != nil {
			return err
		}
	}

	for _, u := range cs.Milestones {
		res, err := tx.Exec(
			"UPDATE milestones SET chapter_id = ?, expected_date = ? WHERE id = ?",
			nullStr(u.ChapterID), dateStr(u.ExpectedDate), u.MilestoneID,
		)
		if err != nil {
			return err
		}
		if err := requireRow(res, "milestone", u.MilestoneID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ApplyModeSwitch executes a pregnancy-to-born transition change set in one
// transaction: profile flip, pregnancy archival, synthetic chapter creation,
// and record moves.
func (s *SQLiteStore) ApplyModeSwitch(cs models.ModeSwitchChangeSet) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := txSaveProfile(tx, cs.Profile); err != nil {
		return err
	}

	archivedAt := cs.ArchivedAt.UTC().Format(time.RFC3339)
	for _, id := range cs.ArchiveChapterIDs {
		res, err := tx.Exec(
			"UPDATE chapters SET archived_at = ? WHERE id = ? AND archived_at IS NULL",
			archivedAt, id)
		if err != nil {
			return err
		}
		if err := requireRow(res, "chapter", id); err != nil {
			return err
		}
	}

	for _, id := range cs.ArchiveMilestoneIDs {
		res, err := tx.Exec(
			"UPDATE milestones SET status = ? WHERE id = ? AND status != ?",
			string(models.MilestoneStatusArchived), id, string(models.MilestoneStatusArchived))
		if err != nil {
			return err
		}
		if err := requireRow(res, "milestone", id); err != nil {
			return err
		}
	}

	if c := cs.NewChapter; c != nil {
		if _, err := tx.Exec(`
			INSERT INTO chapters (
				id, profile_id, template_id, title, start_date, end_date,
				description, created_at, archived_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
			c.ID, c.ProfileID, c.TemplateID, c.Title, dateStr(c.StartDate), nullDate(c.EndDate),
			c.Description, c.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return err
		}
		for _, id := range cs.MoveRecordIDs {
			res, err := tx.Exec("UPDATE records SET chapter_id = ? WHERE id = ?", c.ID, id)
			if err != nil {
				return err
			}
			if err := requireRow(res, "record", id); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// ApplyModeSwitchUndo executes the undo change set in one transaction:
// profile restore, pregnancy unarchival, synthetic chapter dissolution, and
// pruning of content-free born chapters.
func (s *SQLiteStore) ApplyModeSwitchUndo(cs models.ModeSwitchUndoChangeSet) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := txSaveProfile(tx, cs.Profile); err != nil {
		return err
	}

	for _, id := range cs.UnarchiveChapterIDs {
		res, err := tx.Exec("UPDATE chapters SET archived_at = NULL WHERE id = ?", id)
		if err != nil {
			return err
		}
		if err := requireRow(res, "chapter", id); err != nil {
			return err
		}
	}

	for _, id := range cs.UnarchiveMilestoneIDs {
		// Restore to filled when a record is still linked, pending otherwise.
		res, err := tx.Exec(`
			UPDATE milestones SET status = CASE
				WHEN record_id IS NOT NULL AND record_id != '' THEN ?
				ELSE ?
			END WHERE id = ?`,
			string(models.MilestoneStatusFilled), string(models.MilestoneStatusPending), id)
		if err != nil {
			return err
		}
		if err := requireRow(res, "milestone", id); err != nil {
			return err
		}
	}

	if cs.DissolveChapterID != "" {
		if _, err := tx.Exec(
			"UPDATE records SET chapter_id = NULL WHERE chapter_id = ?", cs.DissolveChapterID); err != nil {
			return err
		}
		res, err := tx.Exec("DELETE FROM chapters WHERE id = ?", cs.DissolveChapterID)
		if err != nil {
			return err
		}
		if err := requireRow(res, "chapter", cs.DissolveChapterID); err != nil {
			return err
		}
	}

	for _, id := range cs.DeleteChapterIDs {
		res, err := tx.Exec("DELETE FROM chapters WHERE id = ?", id)
		if err != nil {
			return err
		}
		if err := requireRow(res, "chapter", id); err != nil {
			return err
		}
	}

	for _, id := range cs.DeleteMilestoneIDs {
		res, err := tx.Exec("DELETE FROM milestones WHERE id = ?", id)
		if err != nil {
			return err
		}
		if err := requireRow(res, "milestone", id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func txSaveProfile(tx *sql.Tx, p models.Profile) error {
	res, err := tx.Exec(`
		UPDATE profiles SET name = ?, mode = ?, birthdate = ?, estimated_due_date = ?,
			previous_mode = ?, previous_edd = ?, mode_switched_at = ?,
			show_archived_chapters = ?
		WHERE id = ?`,
		p.Name, string(p.Mode), nullDate(p.Birthdate), nullDate(p.EstimatedDueDate),
		nullStr(string(p.PreviousMode)), nullDate(p.PreviousEDD), nullStamp(p.ModeSwitchedAt),
		p.ShowArchivedChapters, p.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "profile", p.ID)
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %s", kind, id)
	}
	return nil
}
