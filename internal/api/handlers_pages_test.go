package api

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/projecthelena/demoapp/internal/config"
)

var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

// recordingRenderer captures the last view instead of rendering HTML.
type recordingRenderer struct {
	mu    sync.Mutex
	calls []View
	err   error
}

func (r *recordingRenderer) Render(w http.ResponseWriter, status int, name string, data map[string]string) error {
	r.mu.Lock()
	r.calls = append(r.calls, View{Name: name, Context: data})
	r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(name))
	return nil
}

func (r *recordingRenderer) last() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func newTestPages(cfg *config.Config, renderer *recordingRenderer) (*PageHandler, *bytes.Buffer, http.Handler) {
	var logs bytes.Buffer
	h := NewPageHandler(cfg, renderer, log.New(&logs, "", 0))
	h.now = func() time.Time { return time.Date(2026, 10, 17, 9, 5, 3, 0, time.Local) }

	r := chi.NewRouter()
	r.Get("/", h.Home)
	r.Get("/health", h.Health)
	r.Get("/info", h.Info)
	return h, &logs, r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPages(t *testing.T) {
	cfg := config.Default()
	cfg.ApplicationName = "demo"
	cfg.ApplicationVersion = "2.3.4"

	tests := []struct {
		name     string
		path     string
		wantView string
		want     map[string]string
		stamped  []string
	}{
		{
			name:     "home",
			path:     "/",
			wantView: "index",
			want: map[string]string{
				"message":         welcomeMessage,
				"version":         "2.3.4",
				"applicationName": "demo",
			},
			stamped: []string{"currentTime"},
		},
		{
			name:     "health",
			path:     "/health",
			wantView: "health",
			want: map[string]string{
				"status":          "Application is running successfully",
				"version":         "2.3.4",
				"applicationName": "demo",
			},
			stamped: []string{"timestamp"},
		},
		{
			name:     "info",
			path:     "/info",
			wantView: "info",
			want: map[string]string{
				"applicationName":  "demo",
				"version":          "2.3.4",
				"runtimeVersion":   runtime.Version(),
				"frameworkVersion": config.DefaultFrameworkVersion,
			},
			stamped: []string{"buildTime"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingRenderer{}
			_, _, router := newTestPages(&cfg, rec)

			w := get(t, router, tt.path+"?ignored=1&also=x")
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}

			v := rec.last()
			if v.Name != tt.wantView {
				t.Errorf("expected view %q, got %q", tt.wantView, v.Name)
			}
			wantKeys := len(tt.want) + len(tt.stamped)
			if len(v.Context) != wantKeys {
				t.Errorf("expected %d context keys, got %d: %v", wantKeys, len(v.Context), v.Context)
			}
			for k, want := range tt.want {
				if got := v.Context[k]; got != want {
					t.Errorf("context[%s] = %q, want %q", k, got, want)
				}
			}
			for _, k := range tt.stamped {
				if got := v.Context[k]; got != "2026-10-17 09:05:03" {
					t.Errorf("context[%s] = %q, want pinned timestamp", k, got)
				}
			}
		})
	}
}

func TestPagesTimestampFormat(t *testing.T) {
	cfg := config.Default()
	h := NewPageHandler(&cfg, &recordingRenderer{}, log.New(&bytes.Buffer{}, "", 0))

	for key, v := range map[string]View{
		"currentTime": h.HomeView(),
		"timestamp":   h.HealthView(),
		"buildTime":   h.InfoView(),
	} {
		if !timestampPattern.MatchString(v.Context[key]) {
			t.Errorf("%s view: %s = %q does not match yyyy-MM-dd HH:mm:ss", v.Name, key, v.Context[key])
		}
	}
}

func TestPagesDefaultVersion(t *testing.T) {
	t.Setenv("APPLICATION_NAME", "demo")
	t.Setenv("APPLICATION_VERSION", "")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	rec := &recordingRenderer{}
	_, _, router := newTestPages(cfg, rec)

	for _, path := range []string{"/", "/health", "/info"} {
		get(t, router, path)
		if got := rec.last().Context["version"]; got != "1.0.0" {
			t.Errorf("%s: expected default version 1.0.0, got %q", path, got)
		}
	}

	// Scenario: name "demo", version unset.
	v := rec.last()
	if v.Context["applicationName"] != "demo" {
		t.Errorf("expected applicationName demo, got %q", v.Context["applicationName"])
	}
	if v.Context["runtimeVersion"] == "" {
		t.Error("expected non-empty runtimeVersion")
	}
	if v.Context["frameworkVersion"] != config.DefaultFrameworkVersion {
		t.Errorf("expected frameworkVersion %q, got %q", config.DefaultFrameworkVersion, v.Context["frameworkVersion"])
	}
}

func TestPagesZeroConfig(t *testing.T) {
	// A bare struct still yields the default version and an empty name.
	cfg := &config.Config{}
	rec := &recordingRenderer{}
	_, _, router := newTestPages(cfg, rec)

	w := get(t, router, "/info")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	v := rec.last()
	if v.Context["version"] != config.DefaultVersion {
		t.Errorf("expected default version, got %q", v.Context["version"])
	}
	if name, ok := v.Context["applicationName"]; !ok || name != "" {
		t.Errorf("expected empty applicationName key, got %q (present=%v)", name, ok)
	}
	if v.Context["frameworkVersion"] != config.DefaultFrameworkVersion {
		t.Errorf("expected default framework version, got %q", v.Context["frameworkVersion"])
	}
}

func TestPagesIdempotent(t *testing.T) {
	cfg := config.Default()
	rec := &recordingRenderer{}
	h, _, router := newTestPages(&cfg, rec)

	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	h.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	for _, tc := range []struct{ path, key, stamp string }{
		{"/", "message", "currentTime"},
		{"/health", "status", "timestamp"},
	} {
		get(t, router, tc.path)
		first := rec.last()
		get(t, router, tc.path)
		second := rec.last()

		if first.Context[tc.key] != second.Context[tc.key] {
			t.Errorf("%s: %s changed between requests: %q vs %q", tc.path, tc.key, first.Context[tc.key], second.Context[tc.key])
		}
		if first.Context[tc.stamp] == second.Context[tc.stamp] {
			t.Errorf("%s: expected %s to follow the clock", tc.path, tc.stamp)
		}
	}
}

func TestPagesFreshContextPerRequest(t *testing.T) {
	cfg := config.Default()
	rec := &recordingRenderer{}
	_, _, router := newTestPages(&cfg, rec)

	get(t, router, "/")
	first := rec.last()
	first.Context["message"] = "mutated"

	get(t, router, "/")
	if rec.last().Context["message"] != welcomeMessage {
		t.Error("expected a fresh context for each request")
	}
}

func TestPagesRenderError(t *testing.T) {
	cfg := config.Default()
	rec := &recordingRenderer{err: errors.New("template exploded")}
	_, logs, router := newTestPages(&cfg, rec)

	w := get(t, router, "/health")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(logs.String(), "template exploded") {
		t.Errorf("expected render error to be logged, got %q", logs.String())
	}
}
