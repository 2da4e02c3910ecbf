package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/jonwraymond/lifeops/cache"
)

// cacheScope namespaces memoized health reports.
const cacheScope = "healthcheck"

// HandlerConfig configures the aggregated health endpoint.
type HandlerConfig struct {
	// Filter selects which checks the endpoint runs. Nil runs all.
	Filter Filter

	// HealthyStatusCode is written when every selected check is healthy.
	// Default: 200
	HealthyStatusCode int

	// UnhealthyStatusCode is written when any selected check is unhealthy.
	// Default: 500
	UnhealthyStatusCode int

	// Cache memoizes rendered reports. Nil disables caching.
	Cache cache.Cache

	// CacheTTL is how long a rendered report is served from Cache.
	// Zero disables caching.
	CacheTTL time.Duration
}

func (c HandlerConfig) withDefaults() HandlerConfig {
	if c.HealthyStatusCode == 0 {
		c.HealthyStatusCode = http.StatusOK
	}
	if c.UnhealthyStatusCode == 0 {
		c.UnhealthyStatusCode = http.StatusInternalServerError
	}
	return c
}

// Response is the JSON body of the aggregated health endpoint.
type Response struct {
	Status       Status          `json:"status"`
	Healthchecks []CheckResponse `json:"healthchecks"`
}

// CheckResponse is the JSON rendering of one check. Errors are not exposed.
type CheckResponse struct {
	Name        string `json:"name"`
	Status      Status `json:"status"`
	Description string `json:"description,omitempty"`
}

// NewResponse renders results sorted by name.
func NewResponse(results map[string]Result) Response {
	resp := Response{
		Status:       StatusHealthy,
		Healthchecks: make([]CheckResponse, 0, len(results)),
	}
	for name, r := range results {
		if r.Status != StatusHealthy {
			resp.Status = StatusUnhealthy
		}
		resp.Healthchecks = append(resp.Healthchecks, CheckResponse{
			Name:        name,
			Status:      r.Status,
			Description: r.Description,
		})
	}
	sort.Slice(resp.Healthchecks, func(i, j int) bool {
		return resp.Healthchecks[i].Name < resp.Healthchecks[j].Name
	})
	return resp
}

type renderedReport struct {
	Code int             `json:"code"`
	Body json.RawMessage `json:"body"`
}

// Handler returns an HTTP handler that runs the selected checks and writes a
// JSON report.
func Handler(agg *Aggregator, cfg HandlerConfig) http.HandlerFunc {
	cfg = cfg.withDefaults()
	memo := cache.NewMemoizer(cfg.Cache, nil, cache.Policy{
		DefaultTTL: cfg.CacheTTL,
		MaxTTL:     cfg.CacheTTL,
	})

	return func(w http.ResponseWriter, r *http.Request) {
		selected := agg.selected(cfg.Filter)

		raw, err := memo.Do(r.Context(), cacheScope, selected, func(ctx context.Context) ([]byte, error) {
			return renderReport(ctx, agg, cfg)
		})
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var report renderedReport
		if err := json.Unmarshal(raw, &report); err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(report.Code)
		_, _ = w.Write(report.Body)
	}
}

func renderReport(ctx context.Context, agg *Aggregator, cfg HandlerConfig) ([]byte, error) {
	resp := NewResponse(agg.Healthcheck(ctx, cfg.Filter))

	body, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}

	code := cfg.HealthyStatusCode
	if resp.Status != StatusHealthy {
		code = cfg.UnhealthyStatusCode
	}
	return json.Marshal(renderedReport{Code: code, Body: body})
}

// LivenessHandler returns an HTTP handler for liveness checks.
// This is a simple check that the service is running.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// SingleCheckHandler returns an HTTP handler for the check named by the
// "name" path value.
func SingleCheckHandler(agg *Aggregator, cfg HandlerConfig) http.HandlerFunc {
	cfg = cfg.withDefaults()

	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		result, err := agg.Check(r.Context(), name)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			code := http.StatusInternalServerError
			if errors.Is(err, ErrCheckerNotFound) || errors.Is(err, ErrNoCheckers) {
				code = http.StatusNotFound
			}
			w.WriteHeader(code)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": err.Error(),
			})
			return
		}

		code := cfg.HealthyStatusCode
		if result.Status != StatusHealthy {
			code = cfg.UnhealthyStatusCode
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(CheckResponse{
			Name:        name,
			Status:      result.Status,
			Description: result.Description,
		})
	}
}

// RegisterHandlers registers the health handlers on mux:
// /healthz (liveness), /health (aggregated) and /health/{name}.
func RegisterHandlers(mux *http.ServeMux, agg *Aggregator, cfg HandlerConfig) {
	mux.HandleFunc("GET /healthz", LivenessHandler())
	mux.HandleFunc("GET /health", Handler(agg, cfg))
	mux.HandleFunc("GET /health/{name}", SingleCheckHandler(agg, cfg))
}
