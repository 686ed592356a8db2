package bootstrap

import (
	"context"
	"log"

	"legal-assist-be/internal/config"
	"legal-assist-be/internal/controller"
	"legal-assist-be/internal/handler"
	"legal-assist-be/internal/pkg/logger"
	"legal-assist-be/internal/pkg/mailer"
	"legal-assist-be/internal/repository/implementation"
	"legal-assist-be/internal/repository/unitofwork"
	"legal-assist-be/internal/service"
	"legal-assist-be/internal/websocket"
	"legal-assist-be/pkg/embedding"
	"legal-assist-be/pkg/llm/factory"
	"legal-assist-be/pkg/payments"
	"legal-assist-be/pkg/storage"

	pktNats "legal-assist-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const embedCaseTopic = "embed_case"

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	OAuthController   controller.IOAuthController
	UserController    controller.IUserController
	CaseController    controller.ICaseController
	FileController    controller.IFileController
	BillingController controller.IBillingController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// Stripe
	stripeClient := payments.NewStripeClient(cfg.Stripe.SecretKey)
	stripeVerifier := payments.NewStripeVerifier(cfg.Stripe.WebhookSecret)

	// Object storage
	objectStorage, err := storage.NewS3Storage(storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize object storage: %v", err)
	}

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OpenAIAPIKey,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Services
	publisherService := service.NewPublisherService(pubSub, embedCaseTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		embedCaseTopic,
		uowFactory,
		embeddingProvider,
	)

	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory)
	userService := service.NewUserService(uowFactory)

	caseService := service.NewCaseService(uowFactory, publisherService, embeddingProvider, sysLogger)
	chatService := service.NewChatService(uowFactory, llmProvider, publisherService, sysLogger)
	summaryService := service.NewSummaryService(uowFactory, llmProvider, sysLogger)
	fileService := service.NewFileService(uowFactory, objectStorage, sysLogger)

	billingService := service.NewBillingService(
		uowFactory,
		stripeClient,
		stripeClient,
		cfg.App.ClientURL,
		cfg.Stripe.SuccessPath,
		cfg.Stripe.CancelPath,
	)
	webhookService := service.NewWebhookService(
		uowFactory,
		stripeVerifier,
		stripeClient,
		natsPub,
		sysLogger,
	)

	// 4.5 Notification System
	notifRepo := implementation.NewNotificationRepository(db)
	notifService := service.NewNotificationService(notifRepo, uowFactory, natsSub, wsHub, emailService, wsLogger)

	// Start Service (Worker)
	if natsSub != nil {
		go notifService.Start()
	}

	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	// 5. Controllers
	return &Container{
		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
		AuthController:      controller.NewAuthController(authService),
		OAuthController:     controller.NewOAuthController(oauthService),
		UserController:      controller.NewUserController(userService),
		CaseController:      controller.NewCaseController(caseService, chatService, summaryService),
		FileController:      controller.NewFileController(fileService),
		BillingController:   controller.NewBillingController(billingService, webhookService),

		ConsumerService: consumerService,
	}
}
