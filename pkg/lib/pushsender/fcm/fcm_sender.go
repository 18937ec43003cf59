package fcm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"focusflow/config"
	"focusflow/pkg/lib/pushsender"
)

type FCMSender struct {
	client *messaging.Client
	log    *slog.Logger
}

func NewFCMSender(ctx context.Context, cfg config.FCMConfig, logger *slog.Logger) (*FCMSender, error) {
	log := logger.With(slog.String("component", "FCMSender"))

	if cfg.ProjectID == "" && cfg.ServiceAccountKeyJSONPath == "" {
		log.Error("Either ProjectID (for ADC) or ServiceAccountKeyJSONPath must be provided for FCM")
		return nil, errors.New("FCM configuration error: ProjectID or ServiceAccountKeyJSONPath is missing")
	}

	var clientOpt option.ClientOption
	if cfg.ServiceAccountKeyJSONPath != "" {
		log.Info("Using service account key from file path for FCM authentication.", "path", cfg.ServiceAccountKeyJSONPath)
		clientOpt = option.WithCredentialsFile(cfg.ServiceAccountKeyJSONPath)
	} else {
		log.Info("Service account key path not provided, attempting to use Application Default Credentials for FCM.")
	}

	var app *firebase.App
	var err error
	if clientOpt != nil {
		app, err = firebase.NewApp(ctx, nil, clientOpt)
	} else {
		app, err = firebase.NewApp(ctx, nil)
	}
	if err != nil {
		log.Error("Error initializing Firebase App for FCM", "error", err, "projectID", cfg.ProjectID)
		return nil, fmt.Errorf("initializing Firebase App: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		log.Error("Error getting Firebase Messaging client", "error", err)
		return nil, fmt.Errorf("getting Firebase Messaging client: %w", err)
	}

	log.Info("FCMSender initialized successfully")
	return &FCMSender{
		client: messagingClient,
		log:    log,
	}, nil
}

func (s *FCMSender) Send(ctx context.Context, msg pushsender.PushMessage) (*pushsender.SendResult, error) {
	op := "FCMSender.Send"
	log := s.log.With(slog.String("op", op))

	if len(msg.Tokens) == 0 {
		log.Warn("No device tokens provided for sending push notification")
		return &pushsender.SendResult{}, nil
	}

	fcmNotification := &messaging.Notification{
		Title: msg.Title,
		Body:  msg.Body,
	}
	if msg.ImageURL != nil && *msg.ImageURL != "" {
		fcmNotification.ImageURL = *msg.ImageURL
	}

	fcmMessage := &messaging.MulticastMessage{
		Notification: fcmNotification,
		Data:         msg.Data,
		Tokens:       msg.Tokens,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	br, err := s.client.SendMulticast(ctx, fcmMessage)
	if err != nil {
		log.Error("Error sending multicast message via FCM", "error", err)
		return &pushsender.SendResult{FailureCount: len(msg.Tokens), FailedTokens: msg.Tokens}, fmt.Errorf("fcm send multicast: %w", err)
	}

	result := &pushsender.SendResult{
		SuccessCount: br.SuccessCount,
		FailureCount: br.FailureCount,
	}

	if br.FailureCount > 0 {
		log.Warn("Some messages failed to send via FCM", "success_count", br.SuccessCount, "failure_count", br.FailureCount)
		for idx, resp := range br.Responses {
			if !resp.Success && idx < len(msg.Tokens) {
				result.FailedTokens = append(result.FailedTokens, msg.Tokens[idx])
			}
		}
	}

	return result, nil
}

func (s *FCMSender) Ping(ctx context.Context) error {
	op := "FCMSender.Ping"
	log := s.log.With(slog.String("op", op))

	if s.client == nil {
		return errors.New("FCM messaging client is not initialized")
	}

	// Dry-run against an obviously invalid token: any response other than a
	// transport failure proves the client is configured and reachable.
	msg := &messaging.Message{Token: "ping-validation-token"}
	if _, err := s.client.SendDryRun(ctx, msg); err != nil {
		if messaging.IsInvalidArgument(err) || messaging.IsUnregistered(err) {
			return nil
		}
		log.Error("FCM ping failed", "error", err)
		return fmt.Errorf("fcm ping: %w", err)
	}
	return nil
}
