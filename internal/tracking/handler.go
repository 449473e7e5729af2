package tracking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/ignite/open-tracker/internal/pkg/logger"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Handler exposes the pixel endpoint plus the injection and analytics API.
type Handler struct {
	recorder   *Recorder
	injector   *Injector
	aggregator *Aggregator
}

// NewHandler creates the HTTP handler for the tracking service.
func NewHandler(recorder *Recorder, injector *Injector, aggregator *Aggregator) *Handler {
	return &Handler{recorder: recorder, injector: injector, aggregator: aggregator}
}

// Routes builds the service router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Get("/track/pixel", h.HandlePixel)
	r.Post("/api/inject", h.HandleInject)
	r.Get("/api/records/{pixelID}", h.HandleRecord)
	r.Get("/api/campaigns/{campaignID}/open-rate", h.HandleOpenRate)
	r.Get("/api/campaigns/{campaignID}/report", h.HandleReport)
	r.Get("/health", h.HandleHealth)
	return r
}

// HandlePixel records an open and serves the pixel image. The image is
// always served with success status: a broken or unknown pixelId, or a
// store failure, must never break rendering of the email.
func (h *Handler) HandlePixel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("pixelId")

	h.recorder.RecordOpen(r.Context(), id, OpenContext{
		EmailID:    q.Get("emailId"),
		CampaignID: q.Get("campaignId"),
		IPAddress:  realIP(r),
		UserAgent:  r.UserAgent(),
		Location:   r.Header.Get("Cloudfront-Viewer-Country"),
	})

	if rcpt := q.Get("recipient"); rcpt != "" {
		logger.Debug("pixel fetched", "pixel_id", id, "recipient", rcpt)
	}
	h.servePixel(w)
}

type injectRequest struct {
	Content     string        `json:"content"`
	ContentType string        `json:"content_type"`
	Options     InjectOptions `json:"options"`
}

type injectResponse struct {
	Content string `json:"content"`
	PixelID string `json:"pixel_id"`
}

// HandleInject embeds a pixel into submitted content. Injection errors are
// surfaced synchronously: a message that could not be injected into must
// not be sent.
func (h *Handler) HandleInject(w http.ResponseWriter, r *http.Request) {
	var req injectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var (
		content string
		id      string
		err     error
	)
	switch req.ContentType {
	case "html", "":
		content, id, err = h.injector.InjectHTML(req.Content, req.Options)
	case "text":
		content, id, err = h.injector.InjectText(req.Content, req.Options)
	default:
		http.Error(w, "content_type must be html or text", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, injectResponse{Content: content, PixelID: id})
}

// HandleRecord returns the tracking record for one identifier.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "pixelID")

	rec, err := h.recorder.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rec)
}

// HandleOpenRate returns the open-rate aggregate for a campaign. The sent
// count comes from the caller; the tracker has no delivery knowledge.
func (h *Handler) HandleOpenRate(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	sent, _ := strconv.ParseInt(r.URL.Query().Get("sent"), 10, 64)

	rate, err := h.aggregator.OpenRate(r.Context(), campaignID, sent)
	if err != nil {
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rate)
}

// HandleReport returns the plain-text campaign report.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	sent, _ := strconv.ParseInt(r.URL.Query().Get("sent"), 10, 64)

	report, err := h.aggregator.Report(r.Context(), campaignID, sent)
	if err != nil {
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(report))
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelGIF)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write response", "error", err.Error())
	}
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
