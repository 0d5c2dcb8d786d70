// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/pulselog/internal/cache"
	"github.com/tomtom215/pulselog/internal/config"
	"github.com/tomtom215/pulselog/internal/eventlog"
	"github.com/tomtom215/pulselog/internal/ingest"
	"github.com/tomtom215/pulselog/internal/models"
	"github.com/tomtom215/pulselog/internal/recommend"
	"github.com/tomtom215/pulselog/internal/report"
	"github.com/tomtom215/pulselog/internal/stats"
)

// Cache keys for the derived read endpoints. Both views derive from the
// same event log, so both invalidate by TTL alone.
const (
	dashboardCacheKey = "dashboard"
	reportCacheKey    = "report"
)

// Handler serves the HTTP API. All endpoints respond with the
// models.APIResponse envelope.
type Handler struct {
	store      *eventlog.Store
	tracker    *stats.Tracker
	pipeline   *ingest.Pipeline
	engine     *report.Engine
	cache      *cache.Cache
	thresholds recommend.Thresholds
	apiCfg     config.APIConfig
	version    string
	startTime  time.Time
}

// NewHandler creates the API handler. respCache may be nil when response
// caching is disabled; dashboard and report queries then hit the event
// log on every request.
func NewHandler(
	store *eventlog.Store,
	tracker *stats.Tracker,
	pipeline *ingest.Pipeline,
	engine *report.Engine,
	respCache *cache.Cache,
	thresholds recommend.Thresholds,
	apiCfg config.APIConfig,
	version string,
) *Handler {
	return &Handler{
		store:      store,
		tracker:    tracker,
		pipeline:   pipeline,
		engine:     engine,
		cache:      respCache,
		thresholds: thresholds,
		apiCfg:     apiCfg,
		version:    version,
		startTime:  time.Now(),
	}
}

// SubmitEvents handles POST /api/v1/events. The batch is atomic: either
// every event is persisted and counted, or nothing is.
func (h *Handler) SubmitEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, ErrCodeValidation,
				"Request body too large", err)
			return
		}
		respondError(w, http.StatusBadRequest, ErrCodeValidation,
			"invalid request body", err)
		return
	}

	result, err := h.pipeline.Ingest(r.Context(), req)
	if err != nil {
		var verr *ingest.ValidationError
		switch {
		case errors.As(err, &verr):
			if verr.Fields != nil {
				apiErr := verr.Fields.ToAPIError()
				respondErrorDetails(w, http.StatusBadRequest, ErrCodeValidation,
					apiErr.Message, apiErr.Details, nil)
				return
			}
			respondError(w, http.StatusBadRequest, ErrCodeValidation, verr.Message, nil)
		case errors.Is(err, ingest.ErrStoreWrite):
			respondError(w, http.StatusInternalServerError, ErrCodeStorage,
				"Failed to persist events", err)
		default:
			respondError(w, http.StatusInternalServerError, ErrCodeInternal,
				"Failed to process events", err)
		}
		return
	}

	respondSuccess(w, result, time.Since(start))
}

// Stats handles GET /api/v1/stats. The totals come from the in-memory
// tracker snapshot, never from an event log scan.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	summary := h.tracker.Read().Summary()
	respondSuccess(w, summary, time.Since(start))
}

// RecentEvents handles GET /api/v1/events/recent. The limit parameter
// counts sessions read from the log tail; the payload carries every
// event of those sessions, flattened with session context.
func (h *Handler) RecentEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit := getIntParam(r, "limit", h.apiCfg.DefaultRecentLimit)
	if limit < 1 {
		limit = h.apiCfg.DefaultRecentLimit
	}
	if limit > h.apiCfg.MaxRecentLimit {
		limit = h.apiCfg.MaxRecentLimit
	}

	sessions, err := h.store.ReadLast(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeStorage,
			"Failed to read events", err)
		return
	}

	payload := models.RecentEvents{
		Events:   flattenSessions(sessions),
		Sessions: len(sessions),
		Limit:    limit,
	}
	respondSuccess(w, payload, time.Since(start))
}

// UserRollup handles GET /api/v1/users/{userID}. Unknown users return a
// zero rollup, not 404; absence of activity is a valid answer.
func (h *Handler) UserRollup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID := chi.URLParam(r, "userID")
	rollup, err := h.engine.UserRollup(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeStorage,
			"Failed to derive user rollup", err)
		return
	}

	respondSuccess(w, rollup, time.Since(start))
}

// Dashboard handles GET /api/v1/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.cache != nil {
		if v, ok := h.cache.Get(dashboardCacheKey); ok {
			respondCached(w, v)
			return
		}
	}

	dash, err := h.engine.Dashboard(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeStorage,
			"Failed to derive dashboard", err)
		return
	}

	if h.cache != nil {
		h.cache.Set(dashboardCacheKey, dash)
	}
	respondSuccess(w, dash, time.Since(start))
}

// ReportPayload is the report endpoint payload: the full overview plus
// the recommendations it triggered.
type ReportPayload struct {
	Overview        *models.Overview           `json:"overview"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// Report handles GET /api/v1/report.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.cache != nil {
		if v, ok := h.cache.Get(reportCacheKey); ok {
			respondCached(w, v)
			return
		}
	}

	overview, err := h.engine.Overview(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeStorage,
			"Failed to derive report", err)
		return
	}

	recs := recommend.Evaluate(overview, h.thresholds)
	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	payload := ReportPayload{Overview: overview, Recommendations: recs}

	if h.cache != nil {
		h.cache.Set(reportCacheKey, payload)
	}
	respondSuccess(w, payload, time.Since(start))
}

// Health handles GET /api/v1/health. Liveness touches no core component
// so a wedged store cannot fail the probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:        "ok",
		Version:       h.version,
		StoreReady:    h.store != nil,
		TrackerReady:  h.tracker != nil,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	respondSuccess(w, status, 0)
}

// HealthReady handles GET /api/v1/health/ready. Readiness requires the
// store and tracker to be constructed.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.tracker == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeNotReady,
			"Service not ready", nil)
		return
	}

	respondSuccess(w, map[string]bool{"ready": true}, 0)
}

// flattenSessions expands sessions into per-event rows carrying session
// context. Event order within a session is submission order.
func flattenSessions(sessions []*models.Session) []models.FlatEvent {
	total := 0
	for _, s := range sessions {
		total += len(s.Events)
	}

	flat := make([]models.FlatEvent, 0, total)
	for _, s := range sessions {
		for i := range s.Events {
			ev := &s.Events[i]
			flat = append(flat, models.FlatEvent{
				SessionID:   s.SessionID,
				UserID:      s.UserID,
				EventName:   ev.EventName,
				Properties:  ev.Properties,
				Timestamp:   string(ev.Timestamp),
				ProcessedAt: ev.ProcessedAt,
				ReceivedAt:  s.ReceivedAt,
			})
		}
	}
	return flat
}
