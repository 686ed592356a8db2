package controller

import (
	"errors"

	"legal-assist-be/internal/pkg/serverutils"
	"legal-assist-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IFileController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type fileController struct {
	service service.IFileService
}

func NewFileController(service service.IFileService) IFileController {
	return &fileController{service: service}
}

func (c *fileController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/case/v1/:caseId/files")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Upload)
	h.Get("", c.List)
	h.Delete(":fileId", c.Delete)
}

func (c *fileController) Upload(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	caseId, _ := uuid.Parse(ctx.Params("caseId"))

	header, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field 'file' is required")
	}

	f, err := header.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := c.service.Upload(ctx.Context(), userId, caseId, header.Filename, header.Header.Get("Content-Type"), header.Size, f)
	if err != nil {
		return mapFileError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload file", res))
}

func (c *fileController) List(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	caseId, _ := uuid.Parse(ctx.Params("caseId"))

	res, err := c.service.List(ctx.Context(), userId, caseId)
	if err != nil {
		return mapFileError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list files", res))
}

func (c *fileController) Delete(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	caseId, _ := uuid.Parse(ctx.Params("caseId"))
	fileId, _ := uuid.Parse(ctx.Params("fileId"))

	if err := c.service.Delete(ctx.Context(), userId, caseId, fileId); err != nil {
		return mapFileError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete file", nil))
}

func mapFileError(err error) error {
	if errors.Is(err, service.ErrCaseNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "case not found")
	}
	if errors.Is(err, service.ErrFileNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "file not found")
	}
	return err
}
