package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"grocollect/internal/config"
)

// Notifier delivers customer notifications. Both channels are
// best-effort: failures are logged, never raised, and never retried.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, html string) bool
	SendSMS(ctx context.Context, to, message string) bool
}

type notifierImpl struct {
	smtpCfg    config.SMTP
	smsCfg     config.SMS
	httpClient *http.Client
	logger     *zap.Logger
}

func NewNotifier(smtpCfg config.SMTP, smsCfg config.SMS, logger *zap.Logger) Notifier {
	return &notifierImpl{
		smtpCfg: smtpCfg,
		smsCfg:  smsCfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (n *notifierImpl) SendEmail(ctx context.Context, to, subject, html string) bool {
	if n.smtpCfg.Host == "" || to == "" {
		return false
	}

	msg := []byte("From: " + n.smtpCfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" + html)

	addr := n.smtpCfg.Host + ":" + n.smtpCfg.Port
	auth := smtp.PlainAuth("", n.smtpCfg.Username, n.smtpCfg.Password, n.smtpCfg.Host)

	// smtp.SendMail has no context support; run it in a goroutine so
	// the bounded wait below caps how long a transition can be held up.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, n.smtpCfg.From, []string{to}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			n.logger.Warn("send email failed", zap.String("to", to), zap.Error(err))
			return false
		}
		return true
	case <-ctx.Done():
		n.logger.Warn("send email timed out", zap.String("to", to))
		return false
	}
}

func (n *notifierImpl) SendSMS(ctx context.Context, to, message string) bool {
	if n.smsCfg.GatewayURL == "" || to == "" {
		return false
	}

	payload, err := json.Marshal(map[string]string{
		"to":      to,
		"from":    n.smsCfg.Sender,
		"message": message,
	})
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.smsCfg.GatewayURL, bytes.NewBuffer(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+n.smsCfg.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("send sms failed", zap.String("to", to), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("send sms rejected", zap.String("to", to), zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}

// NoopNotifier is used when no channel is configured.
type NoopNotifier struct{}

func (NoopNotifier) SendEmail(ctx context.Context, to, subject, html string) bool { return false }
func (NoopNotifier) SendSMS(ctx context.Context, to, message string) bool         { return false }

// OrderConfirmationSMS is the short confirmation sent once payment is
// reconciled; it carries the temporary pickup code.
func OrderConfirmationSMS(orderNumber, tempCode string) string {
	return fmt.Sprintf("Commande %s confirmée. Code de retrait: %s", orderNumber, tempCode)
}

// FinalCodeSMS carries the staff-issued final code after stage 1.
func FinalCodeSMS(orderNumber, finalCode string) string {
	return fmt.Sprintf("Commande %s prête. Code final de retrait: %s", orderNumber, finalCode)
}
