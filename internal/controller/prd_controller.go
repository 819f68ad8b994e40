package controller

import (
	"prd-builder-be/internal/dto"
	"prd-builder-be/internal/pkg/apperr"
	"prd-builder-be/internal/pkg/serverutils"
	"prd-builder-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPrdController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	GetAnonymous(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type prdController struct {
	service service.IPrdService
	jwt     *serverutils.JwtMiddleware
}

func NewPrdController(service service.IPrdService, jwt *serverutils.JwtMiddleware) IPrdController {
	return &prdController{service: service, jwt: jwt}
}

func (c *prdController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/prd/v1")
	h.Post("", c.jwt.Optional, c.Create)
	h.Get("", c.jwt.Required, c.GetAll)
	h.Get("anonymous", c.GetAnonymous)
	h.Get(":id", c.jwt.Optional, c.Show)
	// Id format is checked before authentication, so these resolve the caller themselves.
	h.Put(":id", c.jwt.Optional, c.Update)
	h.Delete(":id", c.jwt.Optional, c.Delete)
}

func (c *prdController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.CreatePrdDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody()
	}
	if req.QuestionnaireData == nil {
		return apperr.Validation("questionnaire_data is required")
	}

	res, err := c.service.Create(ctx.UserContext(), userId, *req.QuestionnaireData)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse(res))
}

func (c *prdController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetById(ctx.UserContext(), userId, ctx.Params("id"))
	if err != nil {
		return err
	}
	if res == nil {
		return apperr.NotFound("document not found")
	}

	return ctx.JSON(serverutils.SuccessResponse(res))
}

func (c *prdController) GetAll(ctx *fiber.Ctx) error {
	userId, err := serverutils.RequireUserId(ctx)
	if err != nil {
		return err
	}

	q := dto.PaginationQuery{Page: 1, Limit: service.DefaultPageLimit}
	if err := ctx.QueryParser(&q); err != nil {
		return apperr.Validation("page and limit must be integers")
	}

	res, total, err := c.service.ListByOwner(ctx.UserContext(), userId, q.Page, q.Limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.PaginatedSuccessResponse(res, dto.NewPagination(q.Page, q.Limit, total)))
}

func (c *prdController) GetAnonymous(ctx *fiber.Ctx) error {
	q := dto.PaginationQuery{Page: 1, Limit: service.DefaultPageLimit}
	if err := ctx.QueryParser(&q); err != nil {
		return apperr.Validation("limit must be an integer")
	}

	res, err := c.service.ListAnonymous(ctx.UserContext(), q.Limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(res))
}

func (c *prdController) Update(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if _, err := service.ParseDocumentId(id); err != nil {
		return err
	}
	userId, err := serverutils.RequireUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdatePrdDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody()
	}

	res, err := c.service.Update(ctx.UserContext(), userId, id, service.PrdDocumentPatch{
		QuestionnaireData: req.QuestionnaireData,
		SetGeneratedPrd:   req.GeneratedPrd.Set,
		GeneratedPrd:      req.GeneratedPrd.Value,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(res))
}

func (c *prdController) Delete(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if _, err := service.ParseDocumentId(id); err != nil {
		return err
	}
	userId, err := serverutils.RequireUserId(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), userId, id); err != nil {
		return err
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func invalidBody() error {
	return apperr.Validation("invalid JSON body")
}
