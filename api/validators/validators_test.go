package validators

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
)

type loginBody struct {
	UserName string `json:"userName" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Extra    any    `json:"extra,omitempty"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"userName":"","password":"abc"}`))
	var body loginBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["userName"] != "is required" || details["password"] != "must be at least 6" {
		t.Fatalf("unexpected details %+v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"userName":"jane","password":"secret1","admin":true}`))
	var body loginBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyKeepsNumbersExact(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"userName":"jane","password":"secret1","extra":3}`))
	var body loginBody
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := body.Extra.(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", body.Extra)
	}
}

func TestDecodeJSONBodyRequiresBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(""))
	var body loginBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() != "request body required" {
		t.Fatalf("expected missing body error, got %v", err)
	}
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	huge := `{"userName":"` + strings.Repeat("a", MaxBodyBytes) + `","password":"secret1"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(huge))
	var body loginBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQueryInt(t *testing.T) {
	query := url.Values{"limit": {"20"}, "page": {"x"}, "big": {"900"}}
	if v, ok, err := QueryInt(query, "limit", 1, 100); err != nil || !ok || v != 20 {
		t.Fatalf("expected 20, got %d %v %v", v, ok, err)
	}
	if _, ok, err := QueryInt(query, "missing", 1, 100); err != nil || ok {
		t.Fatalf("expected absent, got %v %v", ok, err)
	}
	if _, _, err := QueryInt(query, "page", 1, 100); err == nil {
		t.Fatal("expected numeric error")
	}
	if _, _, err := QueryInt(query, "big", 1, 100); err == nil {
		t.Fatal("expected range error")
	}
}

func TestForwardQuerySkipsLocalKeys(t *testing.T) {
	query := url.Values{"currency": {"LKR"}, "category": {"  grains\x00 "}, "empty": {" "}}
	out := ForwardQuery(query, 4, "currency")
	if out.Has("currency") || out.Has("empty") {
		t.Fatalf("unexpected keys %v", out)
	}
	if got := out.Get("category"); got != "grai" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  rice  ", 3); got != "ric" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("Rs₹€", 3); got != "Rs₹" {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
}
