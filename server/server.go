// Package server exposes the analysis pipeline over HTTP: URL submission
// and domain-reputation lookup, with a thin-transport style — request
// decoding, validation, delegate to the pipeline, JSON response.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/enterprise-email/phishguard/pipeline"
	"github.com/enterprise-email/phishguard/threatintel"
)

// Input-validation bounds: a submitted URL must already begin with
// http(s):// and fall within this length range.
const (
	minURLLength = 10
	maxURLLength = 2048
)

// validateURL rejects malformed, oversize, or undersize URLs before any
// analyzer runs.
func validateURL(u string) string {
	switch {
	case len(u) < minURLLength:
		return "url is shorter than the minimum length of 10"
	case len(u) > maxURLLength:
		return "url exceeds the maximum length of 2048"
	case !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://"):
		return "url must begin with http:// or https://"
	default:
		return ""
	}
}

// Handler handles all HTTP requests for the threat-scoring service.
type Handler struct {
	pipeline    *pipeline.Pipeline
	threatIntel *threatintel.Aggregator
	logger      zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(p *pipeline.Pipeline, intel *threatintel.Aggregator, logger zerolog.Logger) *Handler {
	return &Handler{pipeline: p, threatIntel: intel, logger: logger.With().Str("component", "handler").Logger()}
}

// Routes returns the HTTP router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.healthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze/url", h.analyzeURL)
		r.Get("/threat-intel/domain/{domain}", h.domainReputation)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "phishguard",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// analyzeURLRequest is the URL-submission request body.
type analyzeURLRequest struct {
	URL       string   `json:"url"`
	PageTitle string   `json:"page_title,omitempty"`
	PageText  string   `json:"page_text,omitempty"`
	CSSColors []string `json:"css_colors,omitempty"`
}

func (h *Handler) analyzeURL(w http.ResponseWriter, r *http.Request) {
	var req analyzeURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.URL == "" {
		h.errorResponse(w, r, http.StatusBadRequest, "url is required")
		return
	}
	if msg := validateURL(req.URL); msg != "" {
		h.errorResponse(w, r, http.StatusBadRequest, msg)
		return
	}

	requestID := uuid.New().String()
	h.logger.Info().Str("request_id", requestID).Str("url", req.URL).Msg("analyzing url")

	result, ok := h.pipeline.Analyze(r.Context(), pipeline.Request{
		URL:       req.URL,
		PageTitle: req.PageTitle,
		PageText:  req.PageText,
		CSSColors: req.CSSColors,
	})
	if !ok {
		h.errorResponse(w, r, http.StatusUnprocessableEntity, "failed to analyze url: could not parse URL")
		return
	}

	h.jsonResponse(w, http.StatusOK, result)
}

// domainReputationResponse is the domain-reputation lookup response body,
// combining the live threat-intel check with the locally-tracked
// reputation ledger.
type domainReputationResponse struct {
	Domain          string                         `json:"domain"`
	IsMalicious     bool                           `json:"is_malicious"`
	ThreatScore     int                            `json:"threat_score"`
	Sources         threatintel.Result             `json:"sources"`
	TrackedHistory  *threatintel.DomainReputation  `json:"tracked_history,omitempty"`
	Timestamp       string                         `json:"timestamp"`
}

func (h *Handler) domainReputation(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	if domain == "" {
		h.errorResponse(w, r, http.StatusBadRequest, "domain is required")
		return
	}

	result := h.threatIntel.CheckAll(r.Context(), "https://"+domain)

	resp := domainReputationResponse{
		Domain:      domain,
		IsMalicious: result.ThreatIntelScore >= 60,
		ThreatScore: result.ThreatIntelScore,
		Sources:     result,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	if rep, ok := h.threatIntel.Lookup(domain); ok {
		resp.TrackedHistory = &rep
	}

	h.jsonResponse(w, http.StatusOK, resp)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

// errorResponse emits the user-visible failure shape
// {error, message, path, timestamp}, with the originating error kind
// named in message.
func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error":     http.StatusText(status),
		"message":   message,
		"path":      r.URL.Path,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
