package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingCatalog(ctx context.Context, timeout time.Duration) error
}

// notReady gates readiness during graceful shutdown. Zero value means
// ready, so a fresh process serves traffic as soon as wiring completes.
var notReady atomic.Bool

// SetReady flips the readiness gate. The server calls SetReady(false)
// when shutdown starts so load balancers drain the instance.
func SetReady(ready bool) {
	notReady.Store(!ready)
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker        Checker
	CatalogTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the shutdown gate and dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if notReady.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}
	catalogStatus := "ok"
	if err := h.Checker.PingCatalog(r.Context(), h.catalogTimeout()); err != nil {
		catalogStatus = err.Error()
	}
	status := map[string]string{
		"catalog": catalogStatus,
	}
	if catalogStatus != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) catalogTimeout() time.Duration {
	if h.CatalogTimeout <= 0 {
		return 100 * time.Millisecond
	}
	return h.CatalogTimeout
}
