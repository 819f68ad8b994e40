package dto

import "prd-builder-be/pkg/questionnaire"

// DraftResponse pairs the stored snapshot with progress recomputed from it.
type DraftResponse struct {
	Draft    questionnaire.Answers  `json:"draft"`
	Progress questionnaire.Progress `json:"progress"`
}

func NewDraftResponse(m *questionnaire.Machine) *DraftResponse {
	return &DraftResponse{
		Draft:    m.Snapshot(),
		Progress: m.Progress(),
	}
}

// UpdateStageRequest holds exactly one patch, matching Stage.
type UpdateStageRequest struct {
	Stage  questionnaire.Stage
	Stage1 *questionnaire.Stage1Patch
	Stage2 *questionnaire.Stage2Patch
	Stage3 *questionnaire.Stage3Patch
}

type SetCurrentStageRequest struct {
	Stage int `json:"stage" validate:"required,min=1,max=3"`
}
