package catalog

import "github.com/julianstephens/sproutbook/internal/models"

type MilestoneCategory string

const (
	CategoryMotor         MilestoneCategory = "motor"
	CategorySocial        MilestoneCategory = "social"
	CategoryCommunication MilestoneCategory = "communication"
	CategoryFeeding       MilestoneCategory = "feeding"
	CategoryPregnancy     MilestoneCategory = "pregnancy"
)

// MilestoneTemplate is an immutable catalog entry. WeeksMin/WeeksMax describe
// an age window (in weeks since birth) for born templates and a gestation
// window for pregnancy templates; Mode says which reading applies.
type MilestoneTemplate struct {
	ID       string
	Label    string
	Category MilestoneCategory
	Mode     models.Mode
	WeeksMin int
	WeeksMax int
}

// AppliesTo reports whether the template's window type matches a profile mode.
func (t MilestoneTemplate) AppliesTo(mode models.Mode) bool {
	return t.Mode == mode
}

var milestoneTemplates = []MilestoneTemplate{
	// Born milestones, windows in weeks of age.
	{ID: "first_latch", Label: "First feed", Category: CategoryFeeding, Mode: models.ModeBorn, WeeksMin: 0, WeeksMax: 1},
	{ID: "first_smile", Label: "First social smile", Category: CategorySocial, Mode: models.ModeBorn, WeeksMin: 4, WeeksMax: 8},
	{ID: "holds_head_up", Label: "Holds head up", Category: CategoryMotor, Mode: models.ModeBorn, WeeksMin: 8, WeeksMax: 12},
	{ID: "first_laugh", Label: "First laugh", Category: CategorySocial, Mode: models.ModeBorn, WeeksMin: 12, WeeksMax: 16},
	{ID: "rolls_over", Label: "Rolls over", Category: CategoryMotor, Mode: models.ModeBorn, WeeksMin: 16, WeeksMax: 24},
	{ID: "first_solid_food", Label: "First solid food", Category: CategoryFeeding, Mode: models.ModeBorn, WeeksMin: 22, WeeksMax: 28},
	{ID: "sits_unsupported", Label: "Sits without support", Category: CategoryMotor, Mode: models.ModeBorn, WeeksMin: 24, WeeksMax: 32},
	{ID: "first_tooth", Label: "First tooth", Category: CategoryFeeding, Mode: models.ModeBorn, WeeksMin: 24, WeeksMax: 40},
	{ID: "babbles", Label: "Babbles", Category: CategoryCommunication, Mode: models.ModeBorn, WeeksMin: 24, WeeksMax: 36},
	{ID: "crawls", Label: "Crawls", Category: CategoryMotor, Mode: models.ModeBorn, WeeksMin: 32, WeeksMax: 44},
	{ID: "pulls_to_stand", Label: "Pulls to stand", Category: CategoryMotor, Mode: models.ModeBorn, WeeksMin: 36, WeeksMax: 48},
	{ID: "first_word", Label: "First word", Category: CategoryCommunication, Mode: models.ModeBorn, WeeksMin: 44, WeeksMax: 60},
	{ID: "first_steps", Label: "First steps", Category: CategoryMotor, Mode: models.ModeBorn, WeeksMin: 48, WeeksMax: 60},
	{ID: "two_word_phrases", Label: "Two-word phrases", Category: CategoryCommunication, Mode: models.ModeBorn, WeeksMin: 84, WeeksMax: 104},
	{ID: "runs_steadily", Label: "Runs steadily", Category: CategoryMotor, Mode: models.ModeBorn, WeeksMin: 96, WeeksMax: 116},

	// Pregnancy milestones, windows in gestation weeks.
	{ID: "positive_test", Label: "Positive test", Category: CategoryPregnancy, Mode: models.ModePregnant, WeeksMin: 4, WeeksMax: 6},
	{ID: "first_heartbeat", Label: "Heartbeat heard", Category: CategoryPregnancy, Mode: models.ModePregnant, WeeksMin: 6, WeeksMax: 8},
	{ID: "first_ultrasound", Label: "First ultrasound", Category: CategoryPregnancy, Mode: models.ModePregnant, WeeksMin: 8, WeeksMax: 12},
	{ID: "end_first_trimester", Label: "End of first trimester", Category: CategoryPregnancy, Mode: models.ModePregnant, WeeksMin: 13, WeeksMax: 14},
	{ID: "anatomy_scan", Label: "Anatomy scan", Category: CategoryPregnancy, Mode: models.ModePregnant, WeeksMin: 18, WeeksMax: 22},
	{ID: "first_kick", Label: "First kick felt", Category: CategoryPregnancy, Mode: models.ModePregnant, WeeksMin: 18, WeeksMax: 25},
	{ID: "viability_week", Label: "Viability week", Category: CategoryPregnancy, Mode: models.ModePregnant, WeeksMin: 24, WeeksMax: 25},
	{ID: "third_trimester", Label: "Third trimester begins", Category: CategoryPregnancy, Mode: models.ModePregnant, WeeksMin: 28, WeeksMax: 29},
	{ID: "full_term", Label: "Full term", Category: CategoryPregnancy, Mode: models.ModePregnant, WeeksMin: 37, WeeksMax: 38},
}

// Milestones returns the milestone catalog entries applicable to a mode.
func Milestones(mode models.Mode) []MilestoneTemplate {
	var out []MilestoneTemplate
	for _, t := range milestoneTemplates {
		if t.AppliesTo(mode) {
			out = append(out, t)
		}
	}
	return out
}

// MilestoneByID looks up a milestone template in the full catalog.
func MilestoneByID(id string) (MilestoneTemplate, bool) {
	for _, t := range milestoneTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return MilestoneTemplate{}, false
}
