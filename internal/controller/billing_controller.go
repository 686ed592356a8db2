package controller

import (
	"errors"
	"fmt"

	"legal-assist-be/internal/dto"
	"legal-assist-be/internal/pkg/serverutils"
	"legal-assist-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IBillingController interface {
	RegisterRoutes(r fiber.Router)
	GetPlans(ctx *fiber.Ctx) error
	Checkout(ctx *fiber.Ctx) error
	ManageSubscription(ctx *fiber.Ctx) error
	GetStatus(ctx *fiber.Ctx) error
	Webhook(ctx *fiber.Ctx) error
}

type billingController struct {
	service        service.IBillingService
	webhookService service.IWebhookService
}

func NewBillingController(service service.IBillingService, webhookService service.IWebhookService) IBillingController {
	return &billingController{
		service:        service,
		webhookService: webhookService,
	}
}

func (c *billingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/billing")
	h.Post("/stripe/webhook", c.Webhook)
	h.Get("/plans", c.GetPlans)

	// Protected Routes
	h.Post("/checkout", serverutils.JwtMiddleware, c.Checkout)
	h.Post("/manage", serverutils.JwtMiddleware, c.ManageSubscription)
	h.Get("/status", serverutils.JwtMiddleware, c.GetStatus)
}

func (c *billingController) GetPlans(ctx *fiber.Ctx) error {
	res, err := c.service.GetPlans(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching plans", res))
}

func (c *billingController) Checkout(ctx *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.CreateCheckout(ctx.Context(), userId, &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout session created", res))
}

func (c *billingController) ManageSubscription(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.ManageSubscription(ctx.Context(), userId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Billing portal session created", res))
}

func (c *billingController) GetStatus(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.GetSubscriptionStatus(ctx.Context(), userId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription status", res))
}

// Webhook receives raw Stripe deliveries. The body must stay untouched so
// the signature check runs over the exact bytes Stripe signed.
func (c *billingController) Webhook(ctx *fiber.Ctx) error {
	payload := ctx.Body()
	sigHeader := ctx.Get("Stripe-Signature")

	err := c.webhookService.HandleEvent(ctx.Context(), payload, sigHeader)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			fmt.Printf("[WEBHOOK ERROR] Signature verification failed: %v\n", err)
			return ctx.SendStatus(fiber.StatusBadRequest)
		}
		// Return 500 so Stripe will retry the delivery
		fmt.Printf("[WEBHOOK ERROR] Event handling failed: %v\n", err)
		return ctx.SendStatus(fiber.StatusInternalServerError)
	}

	return ctx.JSON(dto.WebhookAckResponse{Received: true})
}
