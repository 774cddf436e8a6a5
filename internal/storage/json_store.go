package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/julianstephens/sproutbook/internal/models"
)

// jsonState is the on-disk shape of the JSON store.
type jsonState struct {
	Version    int                                 `json:"version"`
	Settings   Settings                            `json:"settings"`
	Profiles   map[string]models.Profile           `json:"profiles"`
	Chapters   map[string]models.Chapter           `json:"chapters"`
	Milestones map[string]models.MilestoneInstance `json:"milestones"`
	Records    map[string]models.Record            `json:"records"`
	Vaults     map[string]models.Vault             `json:"vaults"`
}

// JSONStore keeps the whole data set in a single JSON file. It implements the
// same Provider contract as the SQLite store; the change-set operations are
// trivially atomic because every save is one whole-file write.
type JSONStore struct {
	path      string
	state     *jsonState
	savedHash uint64
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.state = &jsonState{
		Version: 1,
		Settings: Settings{
			DefaultVaultAges: []int{5, 13, 18},
		},
		Profiles:   make(map[string]models.Profile),
		Chapters:   make(map[string]models.Chapter),
		Milestones: make(map[string]models.MilestoneInstance),
		Records:    make(map[string]models.Record),
		Vaults:     make(map[string]models.Vault),
	}

	return s.save()
}

func (s *JSONStore) Load() error {
	if s.state != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'sproutbook init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	s.state = &jsonState{}
	if err := json.Unmarshal(data, s.state); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}

	if s.state.Profiles == nil {
		s.state.Profiles = make(map[string]models.Profile)
	}
	if s.state.Chapters == nil {
		s.state.Chapters = make(map[string]models.Chapter)
	}
	if s.state.Milestones == nil {
		s.state.Milestones = make(map[string]models.MilestoneInstance)
	}
	if s.state.Records == nil {
		s.state.Records = make(map[string]models.Record)
	}
	if s.state.Vaults == nil {
		s.state.Vaults = make(map[string]models.Vault)
	}

	s.savedHash, _ = hashstructure.Hash(s.state, hashstructure.FormatV2, nil)
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save() error {
	// Skip the disk write when nothing actually changed; read-heavy callers
	// (resume-time generation passes) hit this constantly.
	if h, err := hashstructure.Hash(s.state, hashstructure.FormatV2, nil); err == nil {
		if h == s.savedHash && s.savedHash != 0 {
			return nil
		}
		defer func() { s.savedHash = h }()
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}

	return nil
}

func (s *JSONStore) loaded() error {
	if s.state == nil {
		return fmt.Errorf("storage not loaded")
	}
	return nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

// -- Settings ---------------------------------------------------------------

func (s *JSONStore) GetSettings() (Settings, error) {
	if err := s.loaded(); err != nil {
		return Settings{}, err
	}
	return s.state.Settings, nil
}

func (s *JSONStore) SaveSettings(settings Settings) error {
	if err := s.loaded(); err != nil {
		return err
	}
	s.state.Settings = settings
	return s.save()
}

// -- Profiles ---------------------------------------------------------------

func (s *JSONStore) SaveProfile(p models.Profile) error {
	if err := s.loaded(); err != nil {
		return err
	}
	s.state.Profiles[p.ID] = p
	return s.save()
}

func (s *JSONStore) GetProfile(id string) (models.Profile, error) {
	if err := s.loaded(); err != nil {
		return models.Profile{}, err
	}
	p, ok := s.state.Profiles[id]
	if !ok {
		return models.Profile{}, fmt.Errorf("profile not found: %s", id)
	}
	return p, nil
}

func (s *JSONStore) GetAllProfiles() ([]models.Profile, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	profiles := make([]models.Profile, 0, len(s.state.Profiles))
	for _, p := range s.state.Profiles {
		profiles = append(profiles, p)
	}
	sortByCreated(profiles, func(p models.Profile) time.Time { return p.CreatedAt })
	return profiles, nil
}

// -- Chapters ---------------------------------------------------------------

func (s *JSONStore) AddChapter(c models.Chapter) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Chapters[c.ID]; ok {
		return fmt.Errorf("chapter already exists: %s", c.ID)
	}
	s.state.Chapters[c.ID] = c
	return s.save()
}

func (s *JSONStore) GetChapter(id string) (models.Chapter, error) {
	if err := s.loaded(); err != nil {
		return models.Chapter{}, err
	}
	c, ok := s.state.Chapters[id]
	if !ok {
		return models.Chapter{}, fmt.Errorf("chapter not found: %s", id)
	}
	return c, nil
}

func (s *JSONStore) GetChapters(profileID string) ([]models.Chapter, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	var chapters []models.Chapter
	for _, c := range s.state.Chapters {
		if c.ProfileID == profileID {
			chapters = append(chapters, c)
		}
	}
	sortByStart(chapters)
	return chapters, nil
}

func (s *JSONStore) GetActiveChapters(profileID string) ([]models.Chapter, error) {
	chapters, err := s.GetChapters(profileID)
	if err != nil {
		return nil, err
	}
	active := chapters[:0]
	for _, c := range chapters {
		if c.IsActive() {
			active = append(active, c)
		}
	}
	return active, nil
}

func (s *JSONStore) UpdateChapter(c models.Chapter) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Chapters[c.ID]; !ok {
		return fmt.Errorf("chapter not found: %s", c.ID)
	}
	s.state.Chapters[c.ID] = c
	return s.save()
}

func (s *JSONStore) ArchiveChapter(id string) error {
	c, err := s.GetChapter(id)
	if err != nil {
		return err
	}
	if c.ArchivedAt != nil {
		return fmt.Errorf("chapter %s is already archived", id)
	}
	now := time.Now().UTC()
	c.ArchivedAt = &now
	return s.UpdateChapter(c)
}

func (s *JSONStore) UnarchiveChapter(id string) error {
	c, err := s.GetChapter(id)
	if err != nil {
		return err
	}
	if c.ArchivedAt == nil {
		return fmt.Errorf("cannot restore a chapter that is not archived: %s", id)
	}
	c.ArchivedAt = nil
	return s.UpdateChapter(c)
}

func (s *JSONStore) DeleteChapter(id string) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Chapters[id]; !ok {
		return fmt.Errorf("chapter not found: %s", id)
	}
	delete(s.state.Chapters, id)
	return s.save()
}

// -- Milestones -------------------------------------------------------------

func (s *JSONStore) AddMilestone(m models.MilestoneInstance) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Milestones[m.ID]; ok {
		return fmt.Errorf("milestone already exists: %s", m.ID)
	}
	s.state.Milestones[m.ID] = m
	return s.save()
}

func (s *JSONStore) GetMilestone(id string) (models.MilestoneInstance, error) {
	if err := s.loaded(); err != nil {
		return models.MilestoneInstance{}, err
	}
	m, ok := s.state.Milestones[id]
	if !ok {
		return models.MilestoneInstance{}, fmt.Errorf("milestone not found: %s", id)
	}
	return m, nil
}

func (s *JSONStore) GetMilestones(profileID string) ([]models.MilestoneInstance, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	var milestones []models.MilestoneInstance
	for _, m := range s.state.Milestones {
		if m.ProfileID == profileID {
			milestones = append(milestones, m)
		}
	}
	sortByExpected(milestones)
	return milestones, nil
}

func (s *JSONStore) UpdateMilestone(m models.MilestoneInstance) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Milestones[m.ID]; !ok {
		return fmt.Errorf("milestone not found: %s", m.ID)
	}
	s.state.Milestones[m.ID] = m
	return s.save()
}

func (s *JSONStore) ArchiveMilestone(id string) error {
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

func (s *JSONStore) UnarchiveMilestone(id string) error {
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

func (s *JSONStore) DeleteMilestone(id string) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Milestones[id]; !ok {
		return fmt.Errorf("milestone not found: %s", id)
	}
	delete(s.state.Milestones, id)
	return s.save()
}

// -- Records ----------------------------------------------------------------

func (s *JSONStore) AddRecord(r models.Record) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Records[r.ID]; ok {
		return fmt.Errorf("record already exists: %s", r.ID)
	}
	s.state.Records[r.ID] = r
	return s.save()
}

func (s *JSONStore) GetRecord(id string) (models.Record, error) {
	if err := s.loaded(); err != nil {
		return models.Record{}, err
	}
	r, ok := s.state.Records[id]
	if !ok {
		return models.Record{}, fmt.Errorf("record not found: %s", id)
	}
	return r, nil
}

func (s *JSONStore) GetRecords(profileID string) ([]models.Record, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	var records []models.Record
	for _, r := range s.state.Records {
		if r.ProfileID == profileID {
			records = append(records, r)
		}
	}
	sortByCreated(records, func(r models.Record) time.Time { return r.CreatedAt })
	return records, nil
}

func (s *JSONStore) UpdateRecord(r models.Record) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Records[r.ID]; !ok {
		return fmt.Errorf("record not found: %s", r.ID)
	}
	s.state.Records[r.ID] = r
	return s.save()
}

func (s *JSONStore) DeleteRecord(id string) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Records[id]; !ok {
		return fmt.Errorf("record not found: %s", id)
	}
	delete(s.state.Records, id)
	for mid, m := range s.state.Milestones {
		if m.RecordID != id {
			continue
		}
		m.RecordID = ""
		if m.Status == models.MilestoneStatusFilled {
			m.Status = models.MilestoneStatusPending
			m.FilledDate = nil
		}
		s.state.Milestones[mid] = m
	}
	return s.save()
}

// -- Vaults -----------------------------------------------------------------

func (s *JSONStore) AddVault(v models.Vault) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Vaults[v.ID]; ok {
		return fmt.Errorf("vault already exists: %s", v.ID)
	}
	s.state.Vaults[v.ID] = v
	return s.save()
}

func (s *JSONStore) GetVaults(profileID string) ([]models.Vault, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	var vaults []models.Vault
	for _, v := range s.state.Vaults {
		if v.ProfileID == profileID {
			vaults = append(vaults, v)
		}
	}
	sortVaults(vaults)
	return vaults, nil
}

func (s *JSONStore) UpdateVault(v models.Vault) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Vaults[v.ID]; !ok {
		return fmt.Errorf("vault not found: %s", v.ID)
	}
	s.state.Vaults[v.ID] = v
	return s.save()
}

func (s *JSONStore) DeleteVault(id string) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Vaults[id]; !ok {
		return fmt.Errorf("vault not found: %s", id)
	}
	delete(s.state.Vaults, id)
	return s.save()
}

// -- Transactional change sets ----------------------------------------------

// ApplyRebase validates every referenced row first, then mutates and saves
// once, so a bad change set leaves the file untouched.
func (s *JSONStore) ApplyRebase(cs models.RebaseChangeSet) error {
	if err := s.loaded(); err != nil {
		return err
	}
	for _, u := range cs.Chapters {
		if _, ok := s.state.Chapters[u.ChapterID]; !ok {
			return fmt.Errorf("chapter not found: %s", u.ChapterID)
		}
	}
	for _, u := range cs.Milestones {
		if _, ok := s.state.Milestones[u.MilestoneID]; !ok {
			return fmt.Errorf("milestone not found: %s", u.MilestoneID)
		}
	}

	for _, u := range cs.Chapters {
		c := s.state.Chapters[u.ChapterID]
		c.StartDate = u.StartDate
		c.EndDate = u.EndDate
		s.state.Chapters[u.ChapterID] = c
	}
	for _, u := range cs.Milestones {
		m := s.state.Milestones[u.MilestoneID]
		m.ChapterID = u.ChapterID
		m.ExpectedDate = u.ExpectedDate
		s.state.Milestones[u.MilestoneID] = m
	}

	return s.save()
}

func (s *JSONStore) ApplyModeSwitch(cs models.ModeSwitchChangeSet) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Profiles[cs.Profile.ID]; !ok {
		return fmt.Errorf("profile not found: %s", cs.Profile.ID)
	}
	for _, id := range cs.ArchiveChapterIDs {
		if _, ok := s.state.Chapters[id]; !ok {
			return fmt.Errorf("chapter not found: %s", id)
		}
	}
	for _, id := range cs.ArchiveMilestoneIDs {
		if _, ok := s.state.Milestones[id]; !ok {
			return fmt.Errorf("milestone not found: %s", id)
		}
	}
	for _, id := range cs.MoveRecordIDs {
		if _, ok := s.state.Records[id]; !ok {
			return fmt.Errorf("record not found: %s", id)
		}
	}

	s.state.Profiles[cs.Profile.ID] = cs.Profile
	archivedAt := cs.ArchivedAt.UTC()
	for _, id := range cs.ArchiveChapterIDs {
		c := s.state.Chapters[id]
		at := archivedAt
		c.ArchivedAt = &at
		s.state.Chapters[id] = c
	}
	for _, id := range cs.ArchiveMilestoneIDs {
		m := s.state.Milestones[id]
		m.Status = models.MilestoneStatusArchived
		s.state.Milestones[id] = m
	}
	if c := cs.NewChapter; c != nil {
		s.state.Chapters[c.ID] = *c
		for _, id := range cs.MoveRecordIDs {
			r := s.state.Records[id]
			r.ChapterID = c.ID
			s.state.Records[id] = r
		}
	}

	return s.save()
}

func (s *JSONStore) ApplyModeSwitchUndo(cs models.ModeSwitchUndoChangeSet) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.state.Profiles[cs.Profile.ID]; !ok {
		return fmt.Errorf("profile not found: %s", cs.Profile.ID)
	}
	for _, id := range cs.UnarchiveChapterIDs {
		if _, ok := s.state.Chapters[id]; !ok {
			return fmt.Errorf("chapter not found: %s", id)
		}
	}
	for _, id := range cs.UnarchiveMilestoneIDs {
		if _, ok := s.state.Milestones[id]; !ok {
			return fmt.Errorf("milestone not found: %s", id)
		}
	}
	if cs.DissolveChapterID != "" {
		if _, ok := s.state.Chapters[cs.DissolveChapterID]; !ok {
			return fmt.Errorf("chapter not found: %s", cs.DissolveChapterID)
		}
	}

	s.state.Profiles[cs.Profile.ID] = cs.Profile
	for _, id := range cs.UnarchiveChapterIDs {
		c := s.state.Chapters[id]
		c.ArchivedAt = nil
		s.state.Chapters[id] = c
	}
	for _, id := range cs.UnarchiveMilestoneIDs {
		m := s.state.Milestones[id]
		m.Status = m.RestoredStatus()
		s.state.Milestones[id] = m
	}
	if cs.DissolveChapterID != "" {
		for rid, r := range s.state.Records {
			if r.ChapterID == cs.DissolveChapterID {
				r.ChapterID = ""
				s.state.Records[rid] = r
			}
		}
		delete(s.state.Chapters, cs.DissolveChapterID)
	}
	for _, id := range cs.DeleteChapterIDs {
		delete(s.state.Chapters, id)
	}
	for _, id := range cs.DeleteMilestoneIDs {
		delete(s.state.Milestones, id)
	}

	return s.save()
}
