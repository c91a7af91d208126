package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"kirana-be/internal/logger"

	"go.uber.org/zap"
)

const brevoBaseURL = "https://api.brevo.com"

// Mailer delivers a single transactional email. Implementations are
// best-effort: callers treat every send as non-critical.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type brevoMailer struct {
	apiKey     string
	baseURL    string
	from       string
	fromName   string
	httpClient *http.Client
}

// NewMailer returns the Brevo-backed mailer, or a log-only mailer when no
// API key is configured so the rest of the system keeps working.
func NewMailer(apiKey, from, fromName string) Mailer {
	if apiKey == "" {
		logger.L().Warn("mail transport not configured, falling back to log-only mailer")
		return &logMailer{}
	}

	return &brevoMailer{
		apiKey:   apiKey,
		baseURL:  brevoBaseURL,
		from:     from,
		fromName: fromName,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (m *brevoMailer) Send(ctx context.Context, to, subject, html string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("to", to),
		zap.String("subject", subject),
	)

	body := map[string]any{
		"sender":      map[string]string{"name": m.fromName, "email": m.from},
		"to":          []map[string]string{{"email": to}},
		"subject":     subject,
		"htmlContent": html,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.baseURL+"/v3/smtp/email", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("api-key", m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.Error("mail request failed", zap.Error(err))
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Error("mail API rejected request",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", raw),
		)
		return fmt.Errorf("send mail: status %d", resp.StatusCode)
	}

	log.Info("mail sent")
	return nil
}

// logMailer writes the message to the log instead of delivering it.
// Used in development and when mail credentials are absent.
type logMailer struct{}

func (m *logMailer) Send(ctx context.Context, to, subject, _ string) error {
	logger.FromCtx(ctx).Info("mail not configured, logging instead",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
