package main

import (
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tomz197/starfield/internal/config"
	"github.com/tomz197/starfield/internal/starfield"
)

var testLimits = config.Web{SSHHost: "stars.example", MaxFrames: 50, MaxWidth: 200, MaxHeight: 100}

func TestParseFrameQueryDefaults(t *testing.T) {
	req, err := parseFrameQuery(url.Values{}, config.Web{MaxFrames: 600, MaxWidth: 1920, MaxHeight: 1080}, starfield.Overrides{})
	if err != nil {
		t.Fatalf("parseFrameQuery() error = %v", err)
	}
	if req.Width != defaultWidth || req.Height != defaultHeight || req.Frames != defaultFrames || req.Seed != defaultSeed {
		t.Errorf("request = %+v, want defaults", req)
	}
	if req.Accelerate {
		t.Error("Accelerate should default to false")
	}
}

func TestParseFrameQuery(t *testing.T) {
	q := url.Values{
		"width":  {"120"},
		"height": {"80"},
		"frames": {"10"},
		"seed":   {"42"},
		"warp":   {"true"},
		"count":  {"30"},
		"color":  {"#ff8800"},
	}
	req, err := parseFrameQuery(q, testLimits, starfield.Overrides{})
	if err != nil {
		t.Fatalf("parseFrameQuery() error = %v", err)
	}
	if req.Width != 120 || req.Height != 80 || req.Frames != 10 || req.Seed != 42 || !req.Accelerate {
		t.Errorf("request = %+v", req)
	}
	if req.Overrides.StarCount == nil || *req.Overrides.StarCount != 30 {
		t.Errorf("StarCount = %v, want 30", req.Overrides.StarCount)
	}
	if req.Overrides.StarColor == nil || *req.Overrides.StarColor != "#ff8800" {
		t.Errorf("StarColor = %v, want #ff8800", req.Overrides.StarColor)
	}
}

func TestParseFrameQueryKeepsBaseOverrides(t *testing.T) {
	speed := 2.0
	req, err := parseFrameQuery(url.Values{"count": {"5"}}, testLimits, starfield.Overrides{BaseSpeed: &speed})
	if err != nil {
		t.Fatal(err)
	}
	if req.Overrides.BaseSpeed == nil || *req.Overrides.BaseSpeed != 2 {
		t.Errorf("BaseSpeed = %v, want 2", req.Overrides.BaseSpeed)
	}
}

func TestParseFrameQueryRejects(t *testing.T) {
	tests := []struct {
		name string
		q    url.Values
	}{
		{"width too large", url.Values{"width": {"201"}}},
		{"zero height", url.Values{"height": {"0"}}},
		{"too many frames", url.Values{"frames": {"51"}}},
		{"negative frames", url.Values{"frames": {"-1"}}},
		{"non numeric width", url.Values{"width": {"wide"}}},
		{"bad seed", url.Values{"seed": {"-3"}}},
		{"bad warp", url.Values{"warp": {"maybe"}}},
		{"too many stars", url.Values{"count": {"5001"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFrameQuery(tt.q, testLimits, starfield.Overrides{})
			if !errors.Is(err, errBadQuery) {
				t.Errorf("error = %v, want errBadQuery", err)
			}
		})
	}
}

func TestFrameHandler(t *testing.T) {
	mux := newMux(testLimits, starfield.Overrides{}, log.New(io.Discard))

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"png", "/frame.png?width=40&height=20&frames=5&count=20", http.StatusOK},
		{"bad size", "/frame.png?width=9999", http.StatusBadRequest},
		{"bad color", "/frame.png?width=40&height=20&frames=1&color=nope", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			img, err := png.Decode(rec.Body)
			if err != nil {
				t.Fatalf("png.Decode() error = %v", err)
			}
			if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
				t.Errorf("bounds = %v, want 40x20", b)
			}
		})
	}
}

func TestIndexPage(t *testing.T) {
	mux := newMux(testLimits, starfield.Overrides{}, log.New(io.Discard))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "ssh -t stars.example") {
		t.Error("page does not show the SSH host")
	}
	if strings.Contains(body, "{{.SSHHost}}") {
		t.Error("placeholder left in page")
	}
}
