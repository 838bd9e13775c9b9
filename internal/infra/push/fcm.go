// Package push delivers outbox notifications to user devices.
package push

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/tutu-network/focusera/internal/domain"
)

// EnvServiceAccount holds base64-encoded service account JSON.
const EnvServiceAccount = "FCM_SERVICE_ACCOUNT_JSON"

// sender is the part of *messaging.Client the pusher needs.
type sender interface {
	Send(ctx context.Context, m *messaging.Message) (string, error)
}

// FCM pushes through Firebase Cloud Messaging.
type FCM struct {
	client sender
}

var _ domain.Pusher = (*FCM)(nil)

// NewFCM initializes the messaging client. Credentials come from
// FCM_SERVICE_ACCOUNT_JSON when set, otherwise from credentialsFile.
func NewFCM(ctx context.Context, projectID, credentialsFile string) (*FCM, error) {
	var opt option.ClientOption

	if encoded := os.Getenv(EnvServiceAccount); encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", EnvServiceAccount, err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Printf("[push] FCM credentials from %s", EnvServiceAccount)
	} else {
		if _, err := os.Stat(credentialsFile); err != nil {
			return nil, fmt.Errorf("firebase credentials %q: %w", credentialsFile, err)
		}
		opt = option.WithCredentialsFile(credentialsFile)
		log.Printf("[push] FCM credentials from %s", credentialsFile)
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return &FCM{client: client}, nil
}

// message builds the FCM payload for one device.
func message(token string, n domain.Notification) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: map[string]string{
			"type":            string(n.Type),
			"notification_id": strconv.FormatInt(n.ID, 10),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}

// Push sends n to each device individually. It fails only when every send
// failed.
func (f *FCM) Push(ctx context.Context, devices []domain.DeviceToken, n domain.Notification) error {
	if len(devices) == 0 {
		return nil
	}

	sent, failed := 0, 0
	for _, d := range devices {
		if _, err := f.client.Send(ctx, message(d.Token, n)); err != nil {
			log.Printf("[push] send to %s...: %v", shortToken(d.Token), err)
			failed++
			continue
		}
		sent++
	}

	log.Printf("[push] %s: %d sent, %d failed", n.Type, sent, failed)
	if sent == 0 && failed > 0 {
		return fmt.Errorf("all %d push sends failed", failed)
	}
	return nil
}

func shortToken(t string) string {
	if len(t) > 8 {
		return t[:8]
	}
	return t
}

// ─── Log Pusher ─────────────────────────────────────────────────────────────

// Log writes notifications to the process log. Used when no push
// credentials are configured.
type Log struct{}

// Push logs n once per device.
func (Log) Push(_ context.Context, devices []domain.DeviceToken, n domain.Notification) error {
	log.Printf("[push] (log) %s to %s on %d device(s): %s: %s",
		n.Type, n.UserID, len(devices), n.Title, n.Body)
	return nil
}
