// Package httpapi exposes normalization, segmentation and comparison over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"FilingDrift/internal/domain"
	"FilingDrift/internal/normalize"
	"FilingDrift/internal/ports"
	"FilingDrift/internal/segment"
	"FilingDrift/internal/similarity"
)

const maxBodyBytes = 64 << 20

// Handler serves the API.
type Handler struct {
	segmenter *segment.Segmenter
	engine    *similarity.Engine
	records   ports.RecordReader
	logger    *slog.Logger
}

// NewRouter builds the chi router. records may be nil when no database sink
// is configured; the records endpoint then answers 404.
func NewRouter(segmenter *segment.Segmenter, engine *similarity.Engine, records ports.RecordReader, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		segmenter: segmenter,
		engine:    engine,
		records:   records,
		logger:    logger.With("component", "http"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/normalize", h.normalize)
		r.Post("/segment", h.segment)
		r.Post("/compare", h.compare)
		r.Get("/records", h.listRecords)
	})
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(started))
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) normalize(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, normalize.Normalize(raw))
}

type segmentResponse struct {
	Headings []domain.HeadingRecord `json:"headings"`
	Rounds   int                    `json:"rounds"`
	Chosen   []domain.HeadingRecord `json:"chosen"`
	Sections []domain.Section       `json:"sections"`
}

// segment accepts raw markup, or normalized text when ?normalized=true.
func (h *Handler) segment(w http.ResponseWriter, r *http.Request) {
	text, ok := readBody(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("normalized") != "true" {
		text = normalize.Normalize(text)
	}

	res, err := h.segmenter.Segment(text)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrSegmentation) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, segmentResponse{
		Headings: res.Headings,
		Rounds:   res.Rounds,
		Chosen:   res.Chosen,
		Sections: res.Sections,
	})
}

type compareRequest struct {
	Later   string `json:"later"`
	Earlier string `json:"earlier"`
}

type compareResponse struct {
	domain.SimilarityRecord
	Novelty []string `json:"novelty"`
}

func (h *Handler) compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec := h.engine.Compare(req.Later, req.Earlier)
	novelty := similarity.Novelty(similarity.Tokenize(req.Later), similarity.Tokenize(req.Earlier))
	if novelty == nil {
		novelty = []string{}
	}
	writeJSON(w, http.StatusOK, compareResponse{SimilarityRecord: rec, Novelty: novelty})
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	if h.records == nil {
		writeError(w, http.StatusNotFound, errors.New("no record store configured"))
		return
	}

	q := r.URL.Query()
	recs, err := h.records.Records(r.Context(), q.Get("ticker"), q.Get("section"))
	if err != nil {
		h.logger.Warn("list records failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []domain.SimilarityRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return "", false
	}
	return string(data), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
