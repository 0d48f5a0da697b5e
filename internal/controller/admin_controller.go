package controller

import (
	"strconv"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/pkg/serverutils"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetRules(ctx *fiber.Ctx) error
	DeleteRule(ctx *fiber.Ctx) error
	Nuke(ctx *fiber.Ctx) error
	DownloadBackup(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
}

type adminController struct {
	service   service.IAdminService
	secretKey string
}

func NewAdminController(service service.IAdminService, secretKey string) IAdminController {
	return &adminController{
		service:   service,
		secretKey: secretKey,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin", serverutils.SecretKeyMiddleware(c.secretKey))

	h.Get("/rules", c.GetRules)
	h.Delete("/rules/:id", c.DeleteRule)
	h.Post("/nuke", c.Nuke)
	h.Get("/backup", c.DownloadBackup)
	h.Get("/logs", c.GetLogs)
}

func (c *adminController) GetRules(ctx *fiber.Ctx) error {
	rules, err := c.service.GetRules(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(serverutils.ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
	return ctx.JSON(serverutils.OkResponse(rules))
}

func (c *adminController) DeleteRule(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return ctx.Status(fiber.StatusBadRequest).
			JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid rule id"))
	}
	if err := c.service.DeleteRule(ctx.UserContext(), id); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(serverutils.ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
	return ctx.JSON(serverutils.MessageResponse("Rule deleted successfully."))
}

func (c *adminController) Nuke(ctx *fiber.Ctx) error {
	if err := c.service.Nuke(ctx.UserContext()); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(serverutils.ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
	return ctx.JSON(serverutils.MessageResponse("All histories and global rules have been wiped."))
}

func (c *adminController) DownloadBackup(ctx *fiber.Ctx) error {
	filename, content, err := c.service.BuildBackup(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(serverutils.ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
	ctx.Set(fiber.HeaderContentType, "application/zip")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Send(content)
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	level := ctx.Query("level")
	limit := ctx.QueryInt("limit", 100)
	offset := ctx.QueryInt("offset", 0)

	logs, err := c.service.GetLogs(level, limit, offset)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(serverutils.ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
	return ctx.JSON(serverutils.OkResponse(logs))
}
