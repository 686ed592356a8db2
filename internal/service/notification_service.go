// FILE: internal/service/notification_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"legal-assist-be/internal/model"
	"legal-assist-be/internal/pkg/logger"
	"legal-assist-be/internal/pkg/mailer"
	"legal-assist-be/internal/repository"
	"legal-assist-be/internal/repository/specification"
	"legal-assist-be/internal/repository/unitofwork"
	"legal-assist-be/pkg/events"
	pktNats "legal-assist-be/pkg/nats" // Renamed to avoid collision

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification model.Notification)
	Broadcast(notification model.Notification)
}

// notificationTemplate maps an event type to the user-facing copy. Events
// without an entry are consumed and dropped.
type notificationTemplate struct {
	Title     string
	Template  string
	SendEmail bool
}

var notificationTemplates = map[string]notificationTemplate{
	events.TypeSubscriptionActivated: {
		Title:    "Subscription active",
		Template: "Your {plan_id} plan is now active. Thanks for supporting your cases with us!",
	},
	events.TypeSubscriptionCanceled: {
		Title:    "Subscription canceled",
		Template: "Your {plan_id} subscription has been canceled. You keep access to your existing cases.",
	},
	events.TypePaymentFailed: {
		Title:     "Payment failed",
		Template:  "We couldn't process your latest payment. Please update your payment method.",
		SendEmail: true,
	},
	events.TypeTrialWillEnd: {
		Title:     "Trial ending soon",
		Template:  "Your trial of the {plan_id} plan ends in 3 days.",
		SendEmail: true,
	},
}

type NotificationService struct {
	repo         repository.NotificationRepository
	uowFactory   unitofwork.RepositoryFactory
	subscriber   *pktNats.Subscriber
	delivery     NotificationDelivery
	emailService mailer.IEmailService
	logger       logger.ILogger
}

func NewNotificationService(
	repo repository.NotificationRepository,
	uowFactory unitofwork.RepositoryFactory,
	sub *pktNats.Subscriber,
	delivery NotificationDelivery,
	emailService mailer.IEmailService,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		repo:         repo,
		uowFactory:   uowFactory,
		subscriber:   sub,
		delivery:     delivery,
		emailService: emailService,
		logger:       log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	// Strip "events." prefix from type if present (NATS subject includes stream name)
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	tmpl, ok := notificationTemplates[typeCode]
	if !ok {
		s.logger.Debug("NotificationService", fmt.Sprintf("No template for event '%s', dropping", typeCode), nil)
		return nil
	}

	payload := event.Payload()
	uidStr, _ := payload["user_id"].(string)
	userID, err := uuid.Parse(uidStr)
	if err != nil {
		s.logger.Warn("NotificationService", fmt.Sprintf("No usable user_id in payload for event %s", typeCode), nil)
		return nil
	}

	notif := s.buildNotification(userID, typeCode, tmpl, payload)

	if err := s.repo.CreateNotification(ctx, &notif); err != nil {
		s.logger.Error("NotificationService", fmt.Sprintf("Error saving notification for user %s", userID), map[string]interface{}{"error": err})
		return err // NATS will retry
	}

	if s.delivery != nil {
		s.delivery.Send(userID, notif)
	}

	if tmpl.SendEmail && s.emailService != nil {
		s.sendEmail(ctx, userID, typeCode, payload)
	}

	return nil
}

func (s *NotificationService) sendEmail(ctx context.Context, userID uuid.UUID, typeCode string, payload map[string]interface{}) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userID})
	if err != nil || user == nil {
		s.logger.Warn("NotificationService", "Could not resolve user for email", map[string]interface{}{"user_id": userID})
		return
	}

	planName, _ := payload["plan_id"].(string)

	switch typeCode {
	case events.TypePaymentFailed:
		err = s.emailService.SendPaymentFailedNotice(user.Email)
	case events.TypeTrialWillEnd:
		err = s.emailService.SendTrialEndingNotice(user.Email, planName)
	}
	if err != nil {
		s.logger.Warn("NotificationService", "Failed to send email", map[string]interface{}{
			"type":  typeCode,
			"error": err.Error(),
		})
	}
}

func (s *NotificationService) buildNotification(userID uuid.UUID, typeCode string, tmpl notificationTemplate, payload map[string]interface{}) model.Notification {
	// Simple template engine over payload keys
	msg := tmpl.Template
	for k, v := range payload {
		placeholder := fmt.Sprintf("{%s}", k)
		valStr := fmt.Sprintf("%v", v)
		msg = strings.ReplaceAll(msg, placeholder, valStr)
	}

	metaJSON, _ := json.Marshal(payload)

	return model.Notification{
		Id:        uuid.New(),
		UserId:    userID,
		TypeCode:  typeCode,
		Title:     tmpl.Title,
		Message:   msg,
		Metadata:  datatypes.JSON(metaJSON),
		CreatedAt: time.Now(),
		IsRead:    false,
	}
}

// GetNotifications fetches notifications for a user.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	return s.repo.GetNotificationsByUserID(ctx, userID, limit, offset)
}

// GetUnreadCount fetches unread count.
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// MarkAsRead marks a notification as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
