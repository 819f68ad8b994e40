package questionnaire

import "slices"

// Progress is the derived view of a machine: nothing here is ever persisted.
type Progress struct {
	CurrentStage     Stage          `json:"currentStage"`
	CompletedStages  []Stage        `json:"completedStages"`
	IncompleteStages []Stage        `json:"incompleteStages"`
	Percentage       int            `json:"percentage"`
	CanProceedTo     map[int]bool   `json:"canProceedTo"`
	Stages           map[int]Result `json:"stages"`
}

func (m *Machine) Progress() Progress {
	p := Progress{
		CurrentStage:     m.CurrentStage(),
		CompletedStages:  m.CompletedStages(),
		IncompleteStages: slices.Collect(m.IncompleteStages()),
		Percentage:       m.CompletionPercentage(),
		CanProceedTo:     make(map[int]bool, len(Stages)),
		Stages:           make(map[int]Result, len(Stages)),
	}
	if p.CompletedStages == nil {
		p.CompletedStages = []Stage{}
	}
	if p.IncompleteStages == nil {
		p.IncompleteStages = []Stage{}
	}
	for _, s := range Stages {
		p.CanProceedTo[int(s)] = m.CanProceedTo(s)
		p.Stages[int(s)] = ValidateStage(s, m.answers)
	}
	return p
}
