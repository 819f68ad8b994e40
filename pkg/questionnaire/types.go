package questionnaire

import "encoding/json"

// Stage identifies one of the three ordered questionnaire sections.
type Stage int

const (
	Stage1 Stage = 1 // Service overview
	Stage2 Stage = 2 // Design elements
	Stage3 Stage = 3 // Technical constraints
)

// Stages lists every stage in navigation order.
var Stages = []Stage{Stage1, Stage2, Stage3}

func (s Stage) Valid() bool {
	return s >= Stage1 && s <= Stage3
}

type Typography string

const (
	TypographyGothic Typography = "gothic"
	TypographySerif  Typography = "serif"
	TypographyCustom Typography = "custom"
)

func (t Typography) Valid() bool {
	switch t {
	case TypographyGothic, TypographySerif, TypographyCustom:
		return true
	}
	return false
}

type ButtonRadius string

const (
	ButtonRadiusNone ButtonRadius = "none"
	ButtonRadiusSm   ButtonRadius = "sm"
	ButtonRadiusMd   ButtonRadius = "md"
	ButtonRadiusLg   ButtonRadius = "lg"
	ButtonRadiusFull ButtonRadius = "full"
)

func (r ButtonRadius) Valid() bool {
	switch r {
	case ButtonRadiusNone, ButtonRadiusSm, ButtonRadiusMd, ButtonRadiusLg, ButtonRadiusFull:
		return true
	}
	return false
}

type IconWeight string

const (
	IconWeightThin    IconWeight = "thin"
	IconWeightRegular IconWeight = "regular"
	IconWeightBold    IconWeight = "bold"
)

func (w IconWeight) Valid() bool {
	switch w {
	case IconWeightThin, IconWeightRegular, IconWeightBold:
		return true
	}
	return false
}

type ShadowIntensity string

const (
	ShadowNone ShadowIntensity = "none"
	ShadowSm   ShadowIntensity = "sm"
	ShadowMd   ShadowIntensity = "md"
	ShadowLg   ShadowIntensity = "lg"
)

func (s ShadowIntensity) Valid() bool {
	switch s {
	case ShadowNone, ShadowSm, ShadowMd, ShadowLg:
		return true
	}
	return false
}

// AuthMethod is optional; the empty value means "not chosen".
type AuthMethod string

const (
	AuthMethodEmail     AuthMethod = "email"
	AuthMethodTwoFactor AuthMethod = "two-factor"
	AuthMethodBiometric AuthMethod = "biometric"
)

func (m AuthMethod) Valid() bool {
	switch m {
	case AuthMethodEmail, AuthMethodTwoFactor, AuthMethodBiometric:
		return true
	}
	return false
}

// Stage1Data: service overview.
type Stage1Data struct {
	ServiceName  string   `json:"serviceName" validate:"notblank,max=9999"`
	CoreFeatures []string `json:"coreFeatures" validate:"min=1,max=3"`
	MainScreens  string   `json:"mainScreens" validate:"max=9999"`
	UserJourney  string   `json:"userJourney" validate:"max=9999"`
	ServiceMood  string   `json:"serviceMood" validate:"max=9999"`
}

type ColorSystem struct {
	Primary         string `json:"primary"`
	Background      string `json:"background"`
	DarkModeSupport bool   `json:"darkModeSupport"`
}

type UIDetails struct {
	ButtonRadius    ButtonRadius    `json:"buttonRadius" validate:"oneof=none sm md lg full"`
	IconWeight      IconWeight      `json:"iconWeight" validate:"oneof=thin regular bold"`
	ShadowIntensity ShadowIntensity `json:"shadowIntensity" validate:"oneof=none sm md lg"`
}

// Stage2Data: design elements.
type Stage2Data struct {
	Themes        []string    `json:"themes"`
	BrandKeywords []string    `json:"brandKeywords" validate:"max=3"`
	ColorSystem   ColorSystem `json:"colorSystem"`
	Typography    Typography  `json:"typography" validate:"oneof=gothic serif custom"`
	CustomFont    string      `json:"customFont,omitempty"`
	UIDetails     UIDetails   `json:"uiDetails"`
	References    string      `json:"references" validate:"max=9999"`
}

type TechStack struct {
	Frontend []string `json:"frontend"`
	Backend  []string `json:"backend"`
	Database []string `json:"database"`
	Other    []string `json:"other"`
}

type DataManagement struct {
	RealtimeRequired   bool `json:"realtimeRequired"`
	LargeMediaHandling bool `json:"largeMediaHandling"`
}

// Stage3Data: technical constraints.
type Stage3Data struct {
	TechStack         TechStack      `json:"techStack"`
	DataManagement    DataManagement `json:"dataManagement"`
	ExternalAPIs      []string       `json:"externalAPIs"`
	AuthMethod        AuthMethod     `json:"authMethod" validate:"omitempty,oneof=email two-factor biometric"`
	ExceptionHandling string         `json:"exceptionHandling" validate:"max=9999"`
}

// Answers is the full questionnaire snapshot. It is also the persisted layout:
// completed stages are derived and never part of it.
type Answers struct {
	Stage1       Stage1Data `json:"stage1"`
	Stage2       Stage2Data `json:"stage2"`
	Stage3       Stage3Data `json:"stage3"`
	CurrentStage Stage      `json:"currentStage"`
}

func defaultStage1() Stage1Data {
	return Stage1Data{
		CoreFeatures: []string{},
	}
}

func defaultStage2() Stage2Data {
	return Stage2Data{
		Themes:        []string{},
		BrandKeywords: []string{},
		Typography:    TypographyGothic,
		UIDetails: UIDetails{
			ButtonRadius:    ButtonRadiusMd,
			IconWeight:      IconWeightRegular,
			ShadowIntensity: ShadowSm,
		},
	}
}

func defaultStage3() Stage3Data {
	return Stage3Data{
		TechStack: TechStack{
			Frontend: []string{},
			Backend:  []string{},
			Database: []string{},
			Other:    []string{},
		},
		ExternalAPIs: []string{},
		AuthMethod:   AuthMethodEmail,
	}
}

// NewAnswers returns the empty questionnaire positioned at stage 1.
func NewAnswers() Answers {
	return Answers{
		Stage1:       defaultStage1(),
		Stage2:       defaultStage2(),
		Stage3:       defaultStage3(),
		CurrentStage: Stage1,
	}
}

// UnmarshalJSON decodes on top of NewAnswers, so a partial snapshot keeps the
// defaults for every field it leaves out.
func (a *Answers) UnmarshalJSON(data []byte) error {
	type plain Answers
	decoded := plain(NewAnswers())
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*a = Answers(decoded)
	return nil
}
