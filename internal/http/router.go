// Package httpx exposes the station status API: the assembled catalog,
// per-service health probes, and daemon health, plus Prometheus metrics.
package httpx

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"encoding/json"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JacobGitz/Amscope-Docker/internal/service/catalog"
	"github.com/JacobGitz/Amscope-Docker/pkg/config"
)

// CatalogSource assembles the current station catalog.
type CatalogSource interface {
	Build() (catalog.Result, error)
}

// DaemonPinger checks the Docker daemon connection.
type DaemonPinger interface {
	Ping(ctx context.Context) error
}

// Router exposes HTTP endpoints for the station service.
type Router struct {
	mux                *http.ServeMux
	logger             *slog.Logger
	catalog            CatalogSource
	daemon             DaemonPinger
	cfg                config.Station
	client             *http.Client
	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	pingResults        *prometheus.CounterVec
}

const healthCheckTimeout = 2 * time.Second

// New creates and registers handlers.
func New(logger *slog.Logger, source CatalogSource, daemon DaemonPinger, cfg config.Station) *Router {
	r := &Router{
		mux:     http.NewServeMux(),
		logger:  logger,
		catalog: source,
		daemon:  daemon,
		cfg:     cfg,
		client:  &http.Client{Timeout: healthCheckTimeout},
	}
	r.initMetrics()
	r.routes()
	return r
}

// ServeHTTP satisfies http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) routes() {
	r.mux.HandleFunc("/metrics", promhttp.Handler().ServeHTTP)
	r.mux.HandleFunc("/healthz", r.instrument("/healthz", r.handleHealth))
	r.mux.HandleFunc("/catalog", r.instrument("/catalog", r.handleCatalog))
	r.mux.HandleFunc("/catalog/ping", r.instrument("/catalog/ping", r.handleCatalogPing))
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
	defer cancel()
	component := map[string]any{"status": "up"}
	status := "ok"
	if err := r.daemon.Ping(ctx); err != nil {
		status = "degraded"
		component = map[string]any{
			"status": "down",
			"error":  err.Error(),
		}
	}
	payload := map[string]any{
		"status": status,
		"components": map[string]any{
			"docker": component,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	r.writeJSON(w, code, payload)
}

func (r *Router) handleCatalog(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	res, err := r.catalog.Build()
	if err != nil {
		r.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	r.writeJSON(w, http.StatusOK, res)
}

// handleCatalogPing probes the health endpoint of one registered service
// through its published host port.
func (r *Router) handleCatalogPing(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	name := req.URL.Query().Get("service")
	if name == "" {
		r.writeError(w, http.StatusBadRequest, "service query parameter required")
		return
	}
	res, err := r.catalog.Build()
	if err != nil {
		r.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var entry *catalog.Entry
	for i := range res.Entries {
		if res.Entries[i].Service == name {
			entry = &res.Entries[i]
			break
		}
	}
	if entry == nil {
		r.writeError(w, http.StatusNotFound, "unknown service "+name)
		return
	}
	if entry.HostPort == 0 {
		r.writeError(w, http.StatusConflict, "service "+name+" publishes no host port")
		return
	}

	payload := map[string]any{
		"service":   name,
		"host_port": entry.HostPort,
	}
	if err := r.pingService(req.Context(), entry.HostPort); err != nil {
		r.recordPingResult("down")
		payload["status"] = "down"
		payload["error"] = err.Error()
		r.writeJSON(w, http.StatusOK, payload)
		return
	}
	r.recordPingResult("up")
	payload["status"] = "up"
	r.writeJSON(w, http.StatusOK, payload)
}

func (r *Router) pingService(ctx context.Context, port int) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	url := fmt.Sprintf("http://localhost:%d%s", port, r.cfg.PingPath)
	probe, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(probe)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint answered %d", resp.StatusCode)
	}
	return nil
}

func (r *Router) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.logger.Error("failed to encode response", "error", err)
	}
}

func (r *Router) writeError(w http.ResponseWriter, status int, msg string) {
	r.writeJSON(w, status, map[string]string{"error": msg})
}
