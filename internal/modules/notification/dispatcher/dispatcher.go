package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"focusflow/internal/modules/notification"
	"focusflow/pkg/lib/emailsender"
	"focusflow/pkg/lib/pushsender"
)

type NotificationDispatcher struct {
	sender           pushsender.Sender
	emailSender      *emailsender.EmailSender
	feed             notification.Feed
	userInfoProvider notification.UserNotificationInfoProvider
	log              *slog.Logger
}

func New(
	sender pushsender.Sender,
	emailSender *emailsender.EmailSender,
	feed notification.Feed,
	userInfoProvider notification.UserNotificationInfoProvider,
	log *slog.Logger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		sender:           sender,
		emailSender:      emailSender,
		feed:             feed,
		userInfoProvider: userInfoProvider,
		log:              log.With(slog.String("service", "NotificationDispatcher")),
	}
}

// Dispatch runs in its own goroutine so the scheduler's dispatch sweep never
// waits on a delivery channel.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, event notification.Event) {
	go d.processEvent(ctx, event)
}

func (d *NotificationDispatcher) processEvent(ctx context.Context, event notification.Event) {
	log := d.log.With(slog.String("op", "processEvent"), slog.String("eventType", string(event.Type)))

	switch event.Type {
	case notification.EventReminderDue:
		payload, ok := event.Payload.(notification.ReminderDuePayload)
		if !ok {
			log.Error("invalid payload type for EventReminderDue")
			return
		}
		d.handleReminderDue(ctx, payload, log)

	default:
		log.Warn("unhandled event type")
	}
}

func (d *NotificationDispatcher) handleReminderDue(ctx context.Context, payload notification.ReminderDuePayload, log *slog.Logger) {
	// In-app feed first: if the user has the app open this is the channel
	// that matters.
	if d.feed != nil {
		d.feed.Publish(payload.UserID, payload)
	}

	tokens, err := d.userInfoProvider.GetUserDeviceTokens(payload.UserID)
	if err != nil {
		log.Error("failed to get device tokens", "userID", payload.UserID, "error", err)
		tokens = nil
	}

	if len(tokens) > 0 && d.sender != nil {
		deviceTokenValues := make([]string, 0, len(tokens))
		for _, t := range tokens {
			deviceTokenValues = append(deviceTokenValues, t.DeviceToken)
		}

		pushMsg := pushsender.PushMessage{
			Title:  payload.Title,
			Body:   payload.Body,
			Tokens: deviceTokenValues,
			Data: map[string]string{
				"type":             "reminder_due",
				"reminderId":       fmt.Sprintf("%d", payload.ReminderID),
				"reminderType":     payload.ReminderType,
				"priority":         payload.Priority,
				"escalation_level": fmt.Sprintf("%d", payload.EscalationLevel),
			},
		}

		log.Info("Sending reminder push notification", "userID", payload.UserID, "reminderID", payload.ReminderID)
		if _, err := d.sender.Send(ctx, pushMsg); err != nil {
			log.Error("failed to send reminder push notification", "userID", payload.UserID, "error", err)
		}
		return
	}

	// No devices: fall back to email for reminders worth an inbox entry.
	if d.emailSender == nil || (payload.Priority != "high" && payload.Priority != "urgent") {
		log.Info("no push targets and no email fallback applicable", "userID", payload.UserID, "reminderID", payload.ReminderID)
		return
	}

	email, verified, err := d.userInfoProvider.GetUserEmail(payload.UserID)
	if err != nil || !verified {
		log.Warn("no verified email for reminder fallback", "userID", payload.UserID, "error", err)
		return
	}

	log.Info("Sending reminder email fallback", "userID", payload.UserID, "reminderID", payload.ReminderID)
	if err := d.emailSender.SendReminderEmail(email, payload.Title, payload.Body); err != nil {
		log.Error("failed to send reminder email", "userID", payload.UserID, "error", err)
	}
}
