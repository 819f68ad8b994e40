package questionnaire

import (
	"iter"
	"math"
)

// Stage1Patch carries the stage-1 fields to overwrite; nil fields are left alone.
type Stage1Patch struct {
	ServiceName  *string   `json:"serviceName,omitempty"`
	CoreFeatures *[]string `json:"coreFeatures,omitempty"`
	MainScreens  *string   `json:"mainScreens,omitempty"`
	UserJourney  *string   `json:"userJourney,omitempty"`
	ServiceMood  *string   `json:"serviceMood,omitempty"`
}

// Stage2Patch replaces nested objects (colorSystem, uiDetails) as a whole.
type Stage2Patch struct {
	Themes        *[]string    `json:"themes,omitempty"`
	BrandKeywords *[]string    `json:"brandKeywords,omitempty"`
	ColorSystem   *ColorSystem `json:"colorSystem,omitempty"`
	Typography    *Typography  `json:"typography,omitempty"`
	CustomFont    *string      `json:"customFont,omitempty"`
	UIDetails     *UIDetails   `json:"uiDetails,omitempty"`
	References    *string      `json:"references,omitempty"`
}

type Stage3Patch struct {
	TechStack         *TechStack      `json:"techStack,omitempty"`
	DataManagement    *DataManagement `json:"dataManagement,omitempty"`
	ExternalAPIs      *[]string       `json:"externalAPIs,omitempty"`
	AuthMethod        *AuthMethod     `json:"authMethod,omitempty"`
	ExceptionHandling *string         `json:"exceptionHandling,omitempty"`
}

// Machine tracks answers across the three stages and the current-stage pointer.
// It is not safe for concurrent use; each editing session owns one.
//
// Updates never validate. Completion is recomputed from the answers on every
// query, so a stage that stops validating immediately drops out of
// CompletedStages without moving the pointer.
type Machine struct {
	answers Answers
}

func NewMachine() *Machine {
	return &Machine{answers: NewAnswers()}
}

// Restore builds a machine from a persisted snapshot. An out-of-range stage
// pointer falls back to stage 1.
func Restore(snapshot Answers) *Machine {
	if !snapshot.CurrentStage.Valid() {
		snapshot.CurrentStage = Stage1
	}
	return &Machine{answers: snapshot}
}

// Snapshot returns the persistable state.
func (m *Machine) Snapshot() Answers {
	return m.answers
}

func (m *Machine) CurrentStage() Stage {
	return m.answers.CurrentStage
}

func (m *Machine) UpdateStage1(p Stage1Patch) {
	s := &m.answers.Stage1
	if p.ServiceName != nil {
		s.ServiceName = *p.ServiceName
	}
	if p.CoreFeatures != nil {
		s.CoreFeatures = *p.CoreFeatures
	}
	if p.MainScreens != nil {
		s.MainScreens = *p.MainScreens
	}
	if p.UserJourney != nil {
		s.UserJourney = *p.UserJourney
	}
	if p.ServiceMood != nil {
		s.ServiceMood = *p.ServiceMood
	}
}

func (m *Machine) UpdateStage2(p Stage2Patch) {
	s := &m.answers.Stage2
	if p.Themes != nil {
		s.Themes = dedupe(*p.Themes)
	}
	if p.BrandKeywords != nil {
		s.BrandKeywords = *p.BrandKeywords
	}
	if p.ColorSystem != nil {
		s.ColorSystem = *p.ColorSystem
	}
	if p.Typography != nil {
		s.Typography = *p.Typography
	}
	if p.CustomFont != nil {
		s.CustomFont = *p.CustomFont
	}
	if p.UIDetails != nil {
		s.UIDetails = *p.UIDetails
	}
	if p.References != nil {
		s.References = *p.References
	}
}

func (m *Machine) UpdateStage3(p Stage3Patch) {
	s := &m.answers.Stage3
	if p.TechStack != nil {
		s.TechStack = *p.TechStack
	}
	if p.DataManagement != nil {
		s.DataManagement = *p.DataManagement
	}
	if p.ExternalAPIs != nil {
		s.ExternalAPIs = *p.ExternalAPIs
	}
	if p.AuthMethod != nil {
		s.AuthMethod = *p.AuthMethod
	}
	if p.ExceptionHandling != nil {
		s.ExceptionHandling = *p.ExceptionHandling
	}
}

// SetCurrentStage moves the pointer without consulting CanProceedTo; callers
// gate the move themselves. Out-of-range stages are ignored.
func (m *Machine) SetCurrentStage(stage Stage) {
	if !stage.Valid() {
		return
	}
	m.answers.CurrentStage = stage
}

// ResetAll restores the empty defaults and returns to stage 1.
func (m *Machine) ResetAll() {
	m.answers = NewAnswers()
}

func (m *Machine) IsStageComplete(stage Stage) bool {
	return ValidateStage(stage, m.answers).OK()
}

// CanProceedTo reports whether every stage before target is complete.
func (m *Machine) CanProceedTo(target Stage) bool {
	if !target.Valid() {
		return false
	}
	for s := Stage1; s < target; s++ {
		if !m.IsStageComplete(s) {
			return false
		}
	}
	return true
}

// IncompleteStages yields, in order, the stages whose validator fails.
func (m *Machine) IncompleteStages() iter.Seq[Stage] {
	return func(yield func(Stage) bool) {
		for _, s := range Stages {
			if m.IsStageComplete(s) {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

func (m *Machine) CompletedStages() []Stage {
	var done []Stage
	for _, s := range Stages {
		if m.IsStageComplete(s) {
			done = append(done, s)
		}
	}
	return done
}

func (m *Machine) AllStagesComplete() bool {
	return len(m.CompletedStages()) == len(Stages)
}

// CompletionPercentage is the share of complete stages, rounded to a whole percent.
func (m *Machine) CompletionPercentage() int {
	done := float64(len(m.CompletedStages()))
	return int(math.Round(done / float64(len(Stages)) * 100))
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
