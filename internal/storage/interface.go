package storage

import "github.com/julianstephens/sproutbook/internal/models"

// Settings are store-level preferences, independent of any profile.
type Settings struct {
	ActiveProfileID  string `json:"active_profile_id"`
	DefaultVaultAges []int  `json:"default_vault_ages"`
}

// Provider is the persistent store the engine issues operations against.
// Single-row operations are independent writes; the Apply* methods take a
// precomputed change set and must apply it atomically or not at all.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (Settings, error)
	SaveSettings(Settings) error

	// Profiles
	SaveProfile(models.Profile) error
	GetProfile(id string) (models.Profile, error)
	GetAllProfiles() ([]models.Profile, error)

	// Chapters
	AddChapter(models.Chapter) error
	GetChapter(id string) (models.Chapter, error)
	GetChapters(profileID string) ([]models.Chapter, error)
	GetActiveChapters(profileID string) ([]models.Chapter, error)
	UpdateChapter(models.Chapter) error
	ArchiveChapter(id string) error
	UnarchiveChapter(id string) error
	DeleteChapter(id string) error

	// Milestone instances
	AddMilestone(models.MilestoneInstance) error
	GetMilestone(id string) (models.MilestoneInstance, error)
	GetMilestones(profileID string) ([]models.MilestoneInstance, error)
	UpdateMilestone(models.MilestoneInstance) error
	ArchiveMilestone(id string) error
	UnarchiveMilestone(id string) error
	DeleteMilestone(id string) error

	// Records
	AddRecord(models.Record) error
	GetRecord(id string) (models.Record, error)
	GetRecords(profileID string) ([]models.Record, error)
	UpdateRecord(models.Record) error
	DeleteRecord(id string) error

	// Vaults
	AddVault(models.Vault) error
	GetVaults(profileID string) ([]models.Vault, error)
	UpdateVault(models.Vault) error
	DeleteVault(id string) error

	// Transactional change sets
	ApplyRebase(models.RebaseChangeSet) error
	ApplyModeSwitch(models.ModeSwitchChangeSet) error
	ApplyModeSwitchUndo(models.ModeSwitchUndoChangeSet) error

	// Utils
	GetConfigPath() string
}
