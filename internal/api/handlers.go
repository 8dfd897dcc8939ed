package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/logger"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/projection"
	"github.com/julianstephens/dosekeep/internal/service"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

// ListMedications returns every medication. ?all=true includes deleted ones.
// GET /api/medications
func (h *Handler) ListMedications(w http.ResponseWriter, r *http.Request) {
	meds, err := h.Service.Store().GetAllMedications(r.URL.Query().Get("all") == "true")
	if err != nil {
		writeServiceError(w, errors.Storage("list medications", err))
		return
	}
	if meds == nil {
		meds = []models.Medication{}
	}
	writeJSON(w, http.StatusOK, meds)
}

// GET /api/medications/{id}
func (h *Handler) GetMedication(w http.ResponseWriter, r *http.Request) {
	med, err := h.Service.FindMedication(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, med)
}

// CreateMedication adds a medication and generates its schedule.
// POST /api/medications
func (h *Handler) CreateMedication(w http.ResponseWriter, r *http.Request) {
	var med models.Medication
	if err := decodeBody(r, &med); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	med.ID = ""
	created, err := h.Service.AddMedication(r.Context(), med)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Bootstrap generates and deduplicates occurrences for every medication.
// POST /api/schedule/bootstrap
func (h *Handler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	var req BootstrapRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	day, err := h.dayOrToday(req.Day)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	cs, err := h.Service.BootstrapScheduledOccurrences(r.Context(), day, req.HorizonDays)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChangesetDTO(cs))
}

// EnsureLogs reconciles a single day (?day=) or a range (?start=&end=).
// POST /api/logs/ensure
func (h *Handler) EnsureLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("start") != "" || q.Get("end") != "" {
		start, err := utils.ParseDay(q.Get("start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start day", err)
			return
		}
		end, err := utils.ParseDay(q.Get("end"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end day", err)
			return
		}
		cs, err := h.Service.EnsureLogsRange(r.Context(), start, end)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toChangesetDTO(cs))
		return
	}

	day, err := h.dayOrToday(q.Get("day"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	cs, err := h.Service.EnsureLogs(r.Context(), day)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChangesetDTO(cs))
}

// DaySheet returns the reconciled doses of ?day= (default today).
// GET /api/logs
func (h *Handler) DaySheet(w http.ResponseWriter, r *http.Request) {
	day, err := h.dayOrToday(r.URL.Query().Get("day"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	doses, err := h.Service.DaySheet(r.Context(), day)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if doses == nil {
		doses = []service.Dose{}
	}
	writeJSON(w, http.StatusOK, doses)
}

// POST /api/logs/{id}/taken
func (h *Handler) SetTaken(w http.ResponseWriter, r *http.Request) {
	var req SetTakenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	entry, err := h.Service.SetTaken(r.Context(), chi.URLParam(r, "id"), req.Taken, req.TakenAt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// RegenerateFuture rebuilds the schedule from ?from= (default today).
// POST /api/medications/{id}/regenerate
func (h *Handler) RegenerateFuture(w http.ResponseWriter, r *http.Request) {
	pivot, err := h.dayOrToday(r.URL.Query().Get("from"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	cs, err := h.Service.RegenerateFuture(r.Context(), chi.URLParam(r, "id"), pivot)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChangesetDTO(cs))
}

// POST /api/medications/{id}/dedupe
func (h *Handler) Deduplicate(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Service.Deduplicate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChangesetDTO(cs))
}

// POST /api/medications/{id}/skip
func (h *Handler) SkipDay(w http.ResponseWriter, r *http.Request) {
	day, ok := h.requiredDay(w, r)
	if !ok {
		return
	}
	cs, err := h.Service.SkipDay(r.Context(), chi.URLParam(r, "id"), day)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChangesetDTO(cs))
}

// POST /api/occurrences/{id}/move
func (h *Handler) MoveOccurrence(w http.ResponseWriter, r *http.Request) {
	day, ok := h.requiredDay(w, r)
	if !ok {
		return
	}
	cs, err := h.Service.MoveAndReflow(r.Context(), chi.URLParam(r, "id"), day)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChangesetDTO(cs))
}

// Pending lists medications with an outstanding missed dose as of ?day=.
// GET /api/pending
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	day, err := h.dayOrToday(r.URL.Query().Get("day"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pending, err := h.Service.PendingMedications(r.Context(), day)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := PendingResponse{Day: utils.DayKey(day), Count: len(pending), Medications: pending}
	if resp.Medications == nil {
		resp.Medications = []projection.Pending{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/medications/{id}/runout
func (h *Handler) RunOut(w http.ResponseWriter, r *http.Request) {
	day, err := h.dayOrToday(r.URL.Query().Get("day"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.Service.EstimatedRunOutDate(r.Context(), chi.URLParam(r, "id"), day)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// HELPERS
// =============================================================================

// dayOrToday parses a YYYY-MM-DD key, falling back to today in the settings
// timezone when s is empty.
func (h *Handler) dayOrToday(s string) (time.Time, error) {
	if s == "" {
		return h.Service.Today()
	}
	day, err := utils.ParseDay(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return day, nil
}

func (h *Handler) requiredDay(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	var req DayRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return time.Time{}, false
	}
	day, err := utils.ParseDay(req.Day)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid day", err)
		return time.Time{}, false
	}
	return day, true
}

// decodeBody decodes a JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps engine errors onto status codes. Anything that is
// neither missing nor a storage failure was rejected input.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, errors.ErrStorageUnavailable):
		logger.Error("Storage unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable, retry later", err)
	case errors.Is(err, errors.ErrInvalidRecurrence):
		writeError(w, http.StatusBadRequest, "Invalid recurrence", err)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Request rejected: %v", err), nil)
	}
}
