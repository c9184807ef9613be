package mailer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"golang.org/x/time/rate"

	"github.com/heritageheaven/storefront-backend/pkg/config"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
)

// Message is one outbound e-mail.
type Message struct {
	To           string
	Subject      string
	Body         string
	TemplateData map[string]any
}

// Relay delivers messages. Implementations return a CodeDispatch error on any failure.
type Relay interface {
	Send(ctx context.Context, msg Message) error
}

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridRelay sends through the SendGrid v3 API, throttled by a token bucket.
type SendGridRelay struct {
	client     sender
	limiter    *rate.Limiter
	from       *mail.Email
	templateID string
	logg       *logger.Logger
}

// New returns a SendGrid relay when an API key is configured, otherwise a relay
// that only logs, which keeps local runs working without credentials.
func New(cfg config.SendgridConfig, logg *logger.Logger) Relay {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &LogRelay{logg: logg}
	}
	return newSendGridRelay(sendgrid.NewSendClient(cfg.APIKey), cfg, logg)
}

func newSendGridRelay(client sender, cfg config.SendgridConfig, logg *logger.Logger) *SendGridRelay {
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &SendGridRelay{
		client:     client,
		limiter:    rate.NewLimiter(limit, burst),
		from:       mail.NewEmail(cfg.FromName, cfg.DefaultFrom),
		templateID: strings.TrimSpace(cfg.TemplateID),
		logg:       logg,
	}
}

// Send waits for a relay slot and submits msg.
func (r *SendGridRelay) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDispatch, err, "mail relay throttled")
	}

	resp, err := r.client.SendWithContext(ctx, r.build(msg))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDispatch, err, "mail relay request failed")
	}
	if resp == nil {
		return pkgerrors.New(pkgerrors.CodeDispatch, "mail relay returned no response")
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return pkgerrors.Wrap(pkgerrors.CodeDispatch, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(resp.Body, 512)), "mail relay rejected message")
	}
	if r.logg != nil {
		r.logg.Info(r.logg.WithField(ctx, "status", resp.StatusCode), "mail relay accepted message")
	}
	return nil
}

func (r *SendGridRelay) build(msg Message) *mail.SGMailV3 {
	to := mail.NewEmail("", msg.To)
	if r.templateID == "" {
		return mail.NewSingleEmail(r.from, msg.Subject, to, msg.Body, "")
	}

	email := mail.NewV3Mail()
	email.SetFrom(r.from)
	email.SetTemplateID(r.templateID)
	p := mail.NewPersonalization()
	p.AddTos(to)
	p.Subject = msg.Subject
	p.SetDynamicTemplateData("message", msg.Body)
	for k, v := range msg.TemplateData {
		p.SetDynamicTemplateData(k, v)
	}
	email.AddPersonalizations(p)
	return email
}

// LogRelay records messages in the log instead of sending them.
type LogRelay struct {
	logg *logger.Logger
}

func (r *LogRelay) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}
	if r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"to":      msg.To,
			"subject": msg.Subject,
		})
		r.logg.Warn(logCtx, "sendgrid api key not configured; e-mail logged only")
	}
	return nil
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}
