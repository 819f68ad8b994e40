package controller

import (
	"prd-builder-be/internal/dto"
	"prd-builder-be/internal/pkg/apperr"
	"prd-builder-be/internal/pkg/serverutils"
	"prd-builder-be/internal/service"
	"prd-builder-be/pkg/questionnaire"

	"github.com/gofiber/fiber/v2"
)

type IQuestionnaireController interface {
	RegisterRoutes(r fiber.Router)
	GetDraft(ctx *fiber.Ctx) error
	UpdateStage(ctx *fiber.Ctx) error
	SetCurrentStage(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	Submit(ctx *fiber.Ctx) error
	Validate(ctx *fiber.Ctx) error
}

type questionnaireController struct {
	service service.IQuestionnaireService
	jwt     *serverutils.JwtMiddleware
}

func NewQuestionnaireController(service service.IQuestionnaireService, jwt *serverutils.JwtMiddleware) IQuestionnaireController {
	return &questionnaireController{service: service, jwt: jwt}
}

func (c *questionnaireController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/questionnaire/v1")
	h.Post("validate", c.Validate)

	d := h.Group("/draft", c.jwt.Required)
	d.Get("", c.GetDraft)
	d.Delete("", c.Reset)
	d.Patch("stages/:stage", c.UpdateStage)
	d.Put("current-stage", c.SetCurrentStage)
	d.Post("submit", c.Submit)
}

func (c *questionnaireController) GetDraft(ctx *fiber.Ctx) error {
	userId, err := serverutils.RequireUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetDraft(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(res))
}

func (c *questionnaireController) UpdateStage(ctx *fiber.Ctx) error {
	userId, err := serverutils.RequireUserId(ctx)
	if err != nil {
		return err
	}

	stageNum, err := ctx.ParamsInt("stage")
	stage := questionnaire.Stage(stageNum)
	if err != nil || !stage.Valid() {
		return apperr.Validation("stage must be 1, 2 or 3")
	}

	req := dto.UpdateStageRequest{Stage: stage}
	switch stage {
	case questionnaire.Stage1:
		req.Stage1 = &questionnaire.Stage1Patch{}
		err = ctx.BodyParser(req.Stage1)
	case questionnaire.Stage2:
		req.Stage2 = &questionnaire.Stage2Patch{}
		err = ctx.BodyParser(req.Stage2)
	case questionnaire.Stage3:
		req.Stage3 = &questionnaire.Stage3Patch{}
		err = ctx.BodyParser(req.Stage3)
	}
	if err != nil {
		return invalidBody()
	}

	res, err := c.service.UpdateStage(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(res))
}

func (c *questionnaireController) SetCurrentStage(ctx *fiber.Ctx) error {
	userId, err := serverutils.RequireUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.SetCurrentStageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody()
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SetCurrentStage(ctx.UserContext(), userId, questionnaire.Stage(req.Stage))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(res))
}

func (c *questionnaireController) Reset(ctx *fiber.Ctx) error {
	userId, err := serverutils.RequireUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Reset(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(res))
}

func (c *questionnaireController) Submit(ctx *fiber.Ctx) error {
	userId, err := serverutils.RequireUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Submit(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse(res))
}

// Validate reports progress for a client-held snapshot without storing it.
func (c *questionnaireController) Validate(ctx *fiber.Ctx) error {
	var snapshot questionnaire.Answers
	if err := ctx.BodyParser(&snapshot); err != nil {
		return invalidBody()
	}

	return ctx.JSON(serverutils.SuccessResponse(c.service.Evaluate(snapshot)))
}
