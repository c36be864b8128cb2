package api

import (
	"net/http"
	"sync/atomic"
	"time"
)

// Healthz is the liveness probe.
// @Summary      Liveness probe
// @Tags         probes
// @Produce      json
// @Success      200  {object} object{status=string,timestamp=string}
// @Router       /healthz [get]
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Probe tracks whether the process should receive traffic. It starts ready
// and is flipped off when shutdown begins.
type Probe struct {
	ready atomic.Bool
}

func NewProbe() *Probe {
	p := &Probe{}
	p.ready.Store(true)
	return p
}

func (p *Probe) SetReady(ready bool) {
	p.ready.Store(ready)
}

func (p *Probe) Ready() bool {
	return p.ready.Load()
}

// Readyz is the readiness probe.
// @Summary      Readiness probe
// @Tags         probes
// @Produce      json
// @Success      200  {object} object{status=string}
// @Failure      503  {object} object{status=string}
// @Router       /readyz [get]
func (p *Probe) Readyz(w http.ResponseWriter, r *http.Request) {
	if !p.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
