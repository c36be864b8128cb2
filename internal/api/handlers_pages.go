package api

import (
	"log"
	"net/http"
	"runtime"
	"time"

	"github.com/projecthelena/demoapp/internal/config"
	"github.com/projecthelena/demoapp/internal/views"
)

const (
	welcomeMessage  = "Welcome to the Go CI/CD Demo Application!"
	healthStatus    = "Application is running successfully"
	timestampLayout = "2006-01-02 15:04:05"
)

// View is a view name plus the context handed to the renderer.
type View struct {
	Name    string
	Context map[string]string
}

// PageHandler serves the three informational pages.
type PageHandler struct {
	cfg      *config.Config
	renderer views.Renderer
	logger   *log.Logger
	now      func() time.Time
}

func NewPageHandler(cfg *config.Config, renderer views.Renderer, logger *log.Logger) *PageHandler {
	return &PageHandler{
		cfg:      cfg,
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *PageHandler) timestamp() string {
	return h.now().Local().Format(timestampLayout)
}

func (h *PageHandler) version() string {
	if h.cfg.ApplicationVersion == "" {
		return config.DefaultVersion
	}
	return h.cfg.ApplicationVersion
}

func (h *PageHandler) frameworkVersion() string {
	if h.cfg.FrameworkVersion == "" {
		return config.DefaultFrameworkVersion
	}
	return h.cfg.FrameworkVersion
}

func (h *PageHandler) HomeView() View {
	return View{Name: "index", Context: map[string]string{
		"message":         welcomeMessage,
		"currentTime":     h.timestamp(),
		"version":         h.version(),
		"applicationName": h.cfg.ApplicationName,
	}}
}

func (h *PageHandler) HealthView() View {
	return View{Name: "health", Context: map[string]string{
		"status":          healthStatus,
		"timestamp":       h.timestamp(),
		"version":         h.version(),
		"applicationName": h.cfg.ApplicationName,
	}}
}

func (h *PageHandler) InfoView() View {
	return View{Name: "info", Context: map[string]string{
		"applicationName":  h.cfg.ApplicationName,
		"version":          h.version(),
		"buildTime":        h.timestamp(),
		"runtimeVersion":   runtime.Version(),
		"frameworkVersion": h.frameworkVersion(),
	}}
}

// Home renders the landing page.
// @Summary      Home page
// @Tags         pages
// @Produce      html
// @Success      200  {string} string "index view"
// @Router       / [get]
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.HomeView())
}

// Health renders the human-readable health page.
// @Summary      Health page
// @Tags         pages
// @Produce      html
// @Success      200  {string} string "health view"
// @Router       /health [get]
func (h *PageHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.HealthView())
}

// Info renders build and runtime details.
// @Summary      Info page
// @Tags         pages
// @Produce      html
// @Success      200  {string} string "info view"
// @Router       /info [get]
func (h *PageHandler) Info(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.InfoView())
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, v View) {
	if err := h.renderer.Render(w, http.StatusOK, v.Name, v.Context); err != nil {
		h.logger.Printf("render %s for %s: %v", v.Name, sanitizeLog(r.URL.Path), err)
		http.Error(w, "failed to render view", http.StatusInternalServerError)
	}
}
