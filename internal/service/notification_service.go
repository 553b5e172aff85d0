package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/config"
)

// NotificationService posts notification requests to the notification service.
type NotificationService struct {
	client  *http.Client
	baseURL string
	logger  *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		client:  &http.Client{Timeout: cfg.Timeout()},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// SendConfirmation mails the account confirmation code.
func (n *NotificationService) SendConfirmation(ctx context.Context, email, name, code string) error {
	return n.post(ctx, "/api/notificaciones/correo-confirmacion", map[string]string{
		"email":  email,
		"nombre": name,
		"codigo": code,
	})
}

// SendPasswordChanged tells the user their password changed.
func (n *NotificationService) SendPasswordChanged(ctx context.Context, email, name string) error {
	return n.post(ctx, "/api/notificaciones/cambio-clave", map[string]string{
		"email":  email,
		"nombre": name,
	})
}

// SendRecoveryToken mails a password recovery token.
func (n *NotificationService) SendRecoveryToken(ctx context.Context, email, name, token string) error {
	return n.post(ctx, "/api/notificaciones/token-recuperacion", map[string]string{
		"email":  email,
		"nombre": name,
		"token":  token,
	})
}

func (n *NotificationService) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notify %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	n.logger.Debug("notification sent", zap.String("path", path))
	return nil
}
