package controller

import (
	"errors"

	"legal-assist-be/internal/dto"
	"legal-assist-be/internal/pkg/serverutils"
	"legal-assist-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ICaseController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	FindRelated(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	GenerateSummary(ctx *fiber.Ctx) error
	GetLatestSummary(ctx *fiber.Ctx) error
}

type caseController struct {
	caseService    service.ICaseService
	chatService    service.IChatService
	summaryService service.ISummaryService
}

func NewCaseController(
	caseService service.ICaseService,
	chatService service.IChatService,
	summaryService service.ISummaryService,
) ICaseController {
	return &caseController{
		caseService:    caseService,
		chatService:    chatService,
		summaryService: summaryService,
	}
}

func (c *caseController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/case/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
	h.Get(":id/related", c.FindRelated)
	h.Post(":id/chat", c.SendMessage)
	h.Get(":id/chat", c.GetHistory)
	h.Post(":id/summary", c.GenerateSummary)
	h.Get(":id/summary", c.GetLatestSummary)
}

func mapCaseError(err error) error {
	if errors.Is(err, service.ErrCaseNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "case not found")
	}
	return err
}

func (c *caseController) Create(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.CreateCaseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.caseService.Create(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create case", res))
}

func (c *caseController) List(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.caseService.List(ctx.Context(), userId, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list cases", res))
}

func (c *caseController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.caseService.Show(ctx.Context(), userId, id)
	if err != nil {
		return mapCaseError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show case", res))
}

func (c *caseController) Update(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	var req dto.UpdateCaseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.caseService.Update(ctx.Context(), userId, id, &req)
	if err != nil {
		return mapCaseError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update case", res))
}

func (c *caseController) Delete(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	if err := c.caseService.Delete(ctx.Context(), userId, id); err != nil {
		return mapCaseError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete case", nil))
}

func (c *caseController) FindRelated(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))
	limit := ctx.QueryInt("limit", 5)

	res, err := c.caseService.FindRelated(ctx.Context(), userId, id, limit)
	if err != nil {
		return mapCaseError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success find related cases", res))
}

func (c *caseController) SendMessage(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendMessage(ctx.Context(), userId, id, &req)
	if err != nil {
		return mapCaseError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *caseController) GetHistory(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.chatService.GetHistory(ctx.Context(), userId, id)
	if err != nil {
		return mapCaseError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success fetch chat history", res))
}

func (c *caseController) GenerateSummary(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.summaryService.Generate(ctx.Context(), userId, id)
	if err != nil {
		return mapCaseError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate summary", res))
}

func (c *caseController) GetLatestSummary(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.summaryService.GetLatest(ctx.Context(), userId, id)
	if err != nil {
		return mapCaseError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success fetch summary", res))
}
