package push

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/threadline/threadline-backend/pkg/config"
	"github.com/threadline/threadline-backend/pkg/logger"
)

// FCMSender delivers pushes through Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
	dryRun bool
}

// NewFCMSender initializes the Firebase app and returns a messaging-backed
// sender. Without explicit credentials in config the ambient ones are used.
func NewFCMSender(ctx context.Context, cfg config.PushConfig, gcp config.GCPConfig, logg *logger.Logger) (*FCMSender, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: gcp.ProjectID}, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating messaging client: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "fcm messaging client initialized")
	}
	return &FCMSender{client: client, dryRun: cfg.DryRun}, nil
}

// Send delivers one message to one token. Invalid or expired tokens surface
// as errors the caller counts; they are never de-registered here.
func (s *FCMSender) Send(ctx context.Context, msg Message) error {
	if s == nil || s.client == nil {
		return errors.New("fcm sender not initialized")
	}
	if msg.Token == "" {
		return errors.New("device token required")
	}

	out := &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	}

	var err error
	if s.dryRun {
		_, err = s.client.SendDryRun(ctx, out)
	} else {
		_, err = s.client.Send(ctx, out)
	}
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return opts
}
