package questionnaire

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxTextLength caps every free-text answer.
const MaxTextLength = 9999

// Issue describes one failed rule, addressed by its JSON path.
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result is the outcome of validating a stage (or the whole snapshot when Stage is 0).
type Result struct {
	Stage  Stage   `json:"stage,omitempty"`
	Issues []Issue `json:"issues,omitempty"`
}

func (r Result) OK() bool {
	return len(r.Issues) == 0
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// ValidateStage runs the stage's validator against data. It never panics:
// unknown stages and unexpected validator failures come back as issues.
func ValidateStage(stage Stage, a Answers) (res Result) {
	res.Stage = stage
	defer func() {
		if r := recover(); r != nil {
			res.Issues = []Issue{{Field: stagePrefix(stage), Rule: "internal", Message: fmt.Sprint(r)}}
		}
	}()

	var err error
	switch stage {
	case Stage1:
		err = validate.Struct(a.Stage1)
	case Stage2:
		err = validate.Struct(a.Stage2)
	case Stage3:
		err = validate.Struct(a.Stage3)
	default:
		res.Issues = []Issue{{Field: "stage", Rule: "oneof", Message: "stage must be 1, 2 or 3"}}
		return res
	}
	res.Issues = toIssues(stage, err)
	return res
}

// Validate checks every stage plus the stage pointer, the rule set applied
// before a snapshot may be persisted as a document.
func Validate(a Answers) Result {
	var res Result
	for _, s := range Stages {
		res.Issues = append(res.Issues, ValidateStage(s, a).Issues...)
	}
	if !a.CurrentStage.Valid() {
		res.Issues = append(res.Issues, Issue{
			Field:   "currentStage",
			Rule:    "oneof",
			Message: "currentStage must be 1, 2 or 3",
		})
	}
	return res
}

func stagePrefix(stage Stage) string {
	return fmt.Sprintf("stage%d", stage)
}

func toIssues(stage Stage, err error) []Issue {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Field: stagePrefix(stage), Rule: "invalid", Message: err.Error()}}
	}

	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace starts with the Go struct name (e.g. "Stage2Data.uiDetails.iconWeight").
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		path = stagePrefix(stage) + "." + path
		issues = append(issues, Issue{
			Field:   path,
			Rule:    fe.Tag(),
			Message: issueMessage(fe),
		})
	}
	return issues
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s accepts at most %s entries", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
