package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/justestif/go-wellness-mood/internal/checkins"
	"github.com/justestif/go-wellness-mood/internal/clustering"
	"github.com/justestif/go-wellness-mood/internal/config"
	"github.com/justestif/go-wellness-mood/internal/db"
	"github.com/justestif/go-wellness-mood/internal/pipeline"
)

const (
	maxBodyBytes = 1 << 20

	// MaxBatchSize bounds the number of texts accepted by /analyze/batch.
	MaxBatchSize = 50

	kindBadRequest = "bad_request"
	kindNotFound   = "not_found"
)

// Analyzer is the pipeline surface used by the handlers.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (pipeline.Record, error)
	AnalyzeBatch(ctx context.Context, texts []string) ([]pipeline.BatchResult, error)
	Config() pipeline.Config
	HasGenerator() bool
	HasSafety() bool
}

// CheckinService records and aggregates check-ins.
type CheckinService interface {
	Record(ctx context.Context, req checkins.Request) (*checkins.Result, error)
	Get(ctx context.Context, id string) (*db.Checkin, error)
	History(ctx context.Context, userID string, limit int) ([]db.Checkin, error)
	Trends(ctx context.Context, userID string) ([]checkins.DayCount, error)
	Phases(ctx context.Context, userID string, cfg clustering.Config) (*checkins.PhasesResult, error)
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	analyzer Analyzer
	checkins CheckinService
	phases   clustering.Config
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(analyzer Analyzer, svc CheckinService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		analyzer: analyzer,
		checkins: svc,
		phases:   clustering.DefaultConfig(),
		logger:   logger.With("system", "web"),
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type mlHealth struct {
	Status        string `json:"status"`
	Model         string `json:"model"`
	Location      string `json:"location"`
	RemoteModel   bool   `json:"remote_model"`
	SafetyModel   bool   `json:"safety_model"`
	AllowFallback bool   `json:"allow_fallback"`
}

// HealthML handles GET /health/ml. It reports "degraded" when no remote
// model is available and fallback is disabled, since every analysis would fail.
func (h *Handlers) HealthML(w http.ResponseWriter, r *http.Request) {
	cfg := h.analyzer.Config()
	body := mlHealth{
		Status:        "healthy",
		Model:         cfg.ModelID,
		Location:      cfg.Location,
		RemoteModel:   h.analyzer.HasGenerator(),
		SafetyModel:   h.analyzer.HasSafety(),
		AllowFallback: cfg.AllowFallback,
	}
	if !body.RemoteModel && !body.AllowFallback {
		body.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, body)
}

// Analyze handles POST /analyze.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.analyzer.Analyze(r.Context(), req.Text)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type batchRequest struct {
	Texts []string `json:"texts"`
}

type batchItem struct {
	ID      string           `json:"id"`
	Result  *pipeline.Record `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
	Message string           `json:"message,omitempty"`
}

// AnalyzeBatch handles POST /analyze/batch.
func (h *Handlers) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Texts) > MaxBatchSize {
		writeError(w, http.StatusBadRequest, kindBadRequest,
			"too many texts (max "+strconv.Itoa(MaxBatchSize)+")")
		return
	}

	results, err := h.analyzer.AnalyzeBatch(r.Context(), req.Texts)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	items := make([]batchItem, len(results))
	for i, res := range results {
		items[i] = batchItem{ID: res.ID}
		if res.Err != nil {
			items[i].Error = pipeline.ErrorKind(res.Err)
			items[i].Message = res.Err.Error()
			continue
		}
		rec := res.Record
		items[i].Result = &rec
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

type checkinRequest struct {
	UserID      string   `json:"user_id"`
	Text        string   `json:"text"`
	QuickEmojis []string `json:"quick_emojis"`
}

type playlistLink struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type checkinResponse struct {
	ID         string            `json:"id"`
	Mood       string            `json:"mood"`
	Message    string            `json:"message"`
	Playlist   []playlistLink    `json:"playlist"`
	SafetyFlag string            `json:"safety_flag"`
	Helplines  []config.Helpline `json:"helplines"`
	CreatedAt  time.Time         `json:"created_at"`
}

// CreateCheckin handles POST /api/checkin.
func (h *Handlers) CreateCheckin(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.checkins.Record(r.Context(), checkins.Request{
		UserID:      req.UserID,
		Text:        req.Text,
		QuickEmojis: req.QuickEmojis,
	})
	if errors.Is(err, checkins.ErrInvalidText) {
		writeError(w, http.StatusBadRequest, kindBadRequest, err.Error())
		return
	}
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	c := result.Checkin
	resp := checkinResponse{
		ID:         c.ID.String(),
		Mood:       c.Mood,
		Message:    c.Affirmation,
		Playlist:   []playlistLink{},
		SafetyFlag: c.SafetyFlag,
		Helplines:  result.Helplines,
		CreatedAt:  c.CreatedAt,
	}
	if c.PlaylistURL != "" {
		resp.Playlist = append(resp.Playlist, playlistLink{ID: c.PlaylistURL, Label: "Mood Playlist"})
	}
	writeJSON(w, http.StatusOK, resp)
}

type checkinItem struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Text        string    `json:"text"`
	QuickEmojis []string  `json:"quick_emojis"`
	Mood        string    `json:"mood"`
	Message     string    `json:"message"`
	SafetyFlag  string    `json:"safety_flag"`
	PlaylistURL string    `json:"playlist_url,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ListCheckins handles GET /api/checkins?userId=&limit=.
func (h *Handlers) ListCheckins(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, kindBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	list, err := h.checkins.History(r.Context(), q.Get("userId"), limit)
	if err != nil {
		h.writeInternal(w, "listing checkins", err)
		return
	}

	items := make([]checkinItem, len(list))
	for i, c := range list {
		items[i] = toCheckinItem(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"checkins": items})
}

// GetCheckin handles GET /api/checkins/{id}.
func (h *Handlers) GetCheckin(w http.ResponseWriter, r *http.Request) {
	c, err := h.checkins.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, kindNotFound, "checkin not found")
		return
	}
	if err != nil {
		h.writeInternal(w, "loading checkin", err)
		return
	}
	writeJSON(w, http.StatusOK, toCheckinItem(*c))
}

func toCheckinItem(c db.Checkin) checkinItem {
	emojis := c.QuickEmojis
	if emojis == nil {
		emojis = []string{}
	}
	return checkinItem{
		ID:          c.ID.String(),
		UserID:      c.UserID,
		Text:        c.Text,
		QuickEmojis: emojis,
		Mood:        c.Mood,
		Message:     c.Affirmation,
		SafetyFlag:  c.SafetyFlag,
		PlaylistURL: c.PlaylistURL,
		Timestamp:   c.CreatedAt,
	}
}

// MoodTrends handles GET /api/mood_trends?userId=.
func (h *Handlers) MoodTrends(w http.ResponseWriter, r *http.Request) {
	counts, err := h.checkins.Trends(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		h.writeInternal(w, "computing trends", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period": "last100",
		"counts": counts,
	})
}

type phaseItem struct {
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Dominant    string    `json:"dominant_mood"`
	Checkins    int       `json:"checkins"`
	Valence     float64   `json:"valence"`
	Energy      float64   `json:"energy"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

// MoodPhases handles GET /api/mood_phases?userId=.
func (h *Handlers) MoodPhases(w http.ResponseWriter, r *http.Request) {
	result, err := h.checkins.Phases(r.Context(), r.URL.Query().Get("userId"), h.phases)
	if err != nil {
		h.writeInternal(w, "detecting phases", err)
		return
	}

	phases := make([]phaseItem, len(result.Phases))
	for i, p := range result.Phases {
		phases[i] = phaseItem{
			Name:        p.Name,
			Category:    p.Category.Name,
			Description: p.Category.Description,
			Dominant:    p.Dominant.String(),
			Checkins:    len(p.Points),
			Valence:     p.Valence,
			Energy:      p.Energy,
			StartDate:   p.StartDate,
			EndDate:     p.EndDate,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    result.Total,
		"outliers": len(result.Outliers),
		"phases":   phases,
	})
}

// decode reads a JSON body into v, writing a 400 on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writePipelineError maps pipeline error kinds to status codes.
func (h *Handlers) writePipelineError(w http.ResponseWriter, err error) {
	kind := pipeline.ErrorKind(err)

	status := http.StatusInternalServerError
	switch kind {
	case pipeline.KindConfiguration:
		status = http.StatusServiceUnavailable
	case pipeline.KindRemoteCall, pipeline.KindNoUsableResponse:
		status = http.StatusBadGateway
	}

	h.logger.Warn("analysis failed", "kind", kind, "error", err)
	writeError(w, status, kind, err.Error())
}

func (h *Handlers) writeInternal(w http.ResponseWriter, action string, err error) {
	h.logger.Error(action+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, pipeline.KindInternal, action+" failed")
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorBody{Error: kind, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
