package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1M", 1 << 20},
		{"10M", 10 << 20},
		{"512K", 512 << 10},
		{"1G", 1 << 30},
		{"2048", 2048},
		{"", 1 << 20},
		{"garbage", 1 << 20},
	}

	for _, tt := range tests {
		if got := parseLimit(tt.in); got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBodyLimit_AllowsUnderLimit(t *testing.T) {
	e := echo.New()
	mw := BodyLimit("1K", "10K")

	handler := func(c echo.Context) error {
		buf := make([]byte, 2048)
		c.Request().Body.Read(buf)
		return c.String(http.StatusOK, "ok")
	}
	h := mw(handler)

	body := strings.Repeat("a", 100)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tags", strings.NewReader(body))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBodyLimit_RejectsByContentLength(t *testing.T) {
	e := echo.New()
	mw := BodyLimit("1K", "10K")

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}
	h := mw(handler)

	body := strings.Repeat("a", 2048)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tags", strings.NewReader(body))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestBodyLimit_SubmissionPathGetsLargerLimit(t *testing.T) {
	e := echo.New()
	mw := BodyLimit("1K", "10K")

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}
	h := mw(handler)

	// 2KB exceeds the default limit but fits the submission limit.
	body := strings.Repeat("a", 2048)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases", strings.NewReader(body))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for submission path, got %d", rec.Code)
	}
}

func TestIsSubmissionPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/api/v1/cases", true},
		{"/api/v1/cases/", true},
		{"/api/v1/wizard/abc/submit", true},
		{"/api/v1/wizard/abc/advance", false},
		{"/api/v1/tags", false},
	}

	for _, tt := range tests {
		if got := isSubmissionPath(tt.path); got != tt.want {
			t.Errorf("isSubmissionPath(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
