package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/heritageheaven/storefront-backend/pkg/config"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
)

type stubSender struct {
	resp  *rest.Response
	err   error
	calls []*mail.SGMailV3
}

func (s *stubSender) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	s.calls = append(s.calls, email)
	return s.resp, s.err
}

func testConfig() config.SendgridConfig {
	return config.SendgridConfig{
		DefaultFrom: "shop@example.lk",
		FromName:    "Heritage Heaven",
		RatePerSec:  100,
		Burst:       5,
	}
}

func TestSendGridRelaySendsPlainMessage(t *testing.T) {
	stub := &stubSender{resp: &rest.Response{StatusCode: 202}}
	relay := newSendGridRelay(stub, testConfig(), logger.Nop())

	err := relay.Send(context.Background(), Message{To: "buyer@example.com", Subject: "Invoice", Body: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(stub.calls) != 1 {
		t.Fatalf("expected one relay call, got %d", len(stub.calls))
	}
	sent := stub.calls[0]
	if sent.From.Address != "shop@example.lk" {
		t.Fatalf("unexpected sender %+v", sent.From)
	}
	if len(sent.Personalizations) != 1 || sent.Personalizations[0].To[0].Address != "buyer@example.com" {
		t.Fatalf("unexpected personalizations %+v", sent.Personalizations)
	}
	if len(sent.Content) == 0 || sent.Content[0].Value != "hello" {
		t.Fatalf("expected body as plain content, got %+v", sent.Content)
	}
}

func TestSendGridRelayUsesTemplateData(t *testing.T) {
	cfg := testConfig()
	cfg.TemplateID = "d-123"
	stub := &stubSender{resp: &rest.Response{StatusCode: 202}}
	relay := newSendGridRelay(stub, cfg, nil)

	err := relay.Send(context.Background(), Message{
		To:           "buyer@example.com",
		Body:         "body text",
		TemplateData: map[string]any{"invoice_number": "INV100001"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	sent := stub.calls[0]
	if sent.TemplateID != "d-123" {
		t.Fatalf("expected template id, got %q", sent.TemplateID)
	}
	data := sent.Personalizations[0].DynamicTemplateData
	if data["message"] != "body text" || data["invoice_number"] != "INV100001" {
		t.Fatalf("unexpected template data %+v", data)
	}
}

func TestSendGridRelayMapsFailures(t *testing.T) {
	cases := map[string]*stubSender{
		"transport": {err: errors.New("connection reset")},
		"rejected":  {resp: &rest.Response{StatusCode: 401, Body: "bad key"}},
		"empty":     {},
	}
	for name, stub := range cases {
		t.Run(name, func(t *testing.T) {
			relay := newSendGridRelay(stub, testConfig(), nil)
			err := relay.Send(context.Background(), Message{To: "buyer@example.com"})
			if !pkgerrors.IsCode(err, pkgerrors.CodeDispatch) {
				t.Fatalf("expected dispatch error, got %v", err)
			}
		})
	}
}

func TestSendGridRelayHonoursContextWhileThrottled(t *testing.T) {
	cfg := testConfig()
	cfg.RatePerSec = 0.001
	cfg.Burst = 1
	stub := &stubSender{resp: &rest.Response{StatusCode: 202}}
	relay := newSendGridRelay(stub, cfg, nil)

	if err := relay.Send(context.Background(), Message{To: "a@example.com"}); err != nil {
		t.Fatalf("first send should use the burst: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := relay.Send(ctx, Message{To: "a@example.com"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDispatch) {
		t.Fatalf("expected throttled dispatch error, got %v", err)
	}
	if len(stub.calls) != 1 {
		t.Fatalf("throttled send must not reach the relay, got %d calls", len(stub.calls))
	}
}

func TestNewFallsBackToLogRelay(t *testing.T) {
	relay := New(config.SendgridConfig{}, logger.Nop())
	if _, ok := relay.(*LogRelay); !ok {
		t.Fatalf("expected log relay without api key, got %T", relay)
	}
	if err := relay.Send(context.Background(), Message{To: "a@example.com"}); err != nil {
		t.Fatalf("log relay send: %v", err)
	}
	if err := relay.Send(context.Background(), Message{}); err == nil {
		t.Fatal("expected missing recipient error")
	}
}
