package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/pathakanu/memoflow/internal/app"
	"github.com/pathakanu/memoflow/internal/model"
	"github.com/pathakanu/memoflow/internal/review"
)

type handlers struct {
	svc      *app.Service
	location *time.Location
	logger   zerolog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type addMemoRequest struct {
	Content string `json:"content"`
}

type triggerReviewRequest struct {
	Frequency model.ReviewFrequency `json:"frequency"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"reviewing": h.svc.Reviewing(),
	})
}

func (h *handlers) listMemos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListMemos(r.Context()))
}

func (h *handlers) groupedMemos(w http.ResponseWriter, r *http.Request) {
	groups := model.GroupByDay(h.svc.ListMemos(r.Context()), h.svc.Now(), h.location)
	if groups == nil {
		groups = []model.DayGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *handlers) addMemo(w http.ResponseWriter, r *http.Request) {
	var req addMemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	memo, _, err := h.svc.AddMemo(r.Context(), req.Content)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, memo)
}

func (h *handlers) removeMemo(w http.ResponseWriter, r *http.Request) {
	memos, err := h.svc.RemoveMemo(r.Context(), chi.URLParam(r, "memoID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memos)
}

func (h *handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetSettings(r.Context()))
}

func (h *handlers) setSettings(w http.ResponseWriter, r *http.Request) {
	var settings model.AppSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	saved, err := h.svc.SetSettings(r.Context(), settings)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	reviews := h.svc.ListReviews(r.Context())
	if r.URL.Query().Get("format") == "yaml" {
		out, err := yaml.Marshal(reviews)
		if err != nil {
			h.fail(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(out)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *handlers) getReview(w http.ResponseWriter, r *http.Request) {
	result, ok := h.svc.GetReview(r.Context(), chi.URLParam(r, "reviewID"))
	if !ok {
		writeError(w, http.StatusNotFound, "review not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// triggerReview runs a review for the requested frequency, or the saved one
// when the body is empty.
func (h *handlers) triggerReview(w http.ResponseWriter, r *http.Request) {
	var req triggerReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Frequency == "" {
		req.Frequency = h.svc.GetSettings(r.Context()).ReviewFrequency
	}

	result, err := h.svc.TriggerReview(r.Context(), req.Frequency)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *handlers) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrEmptyMemo),
		errors.Is(err, app.ErrInvalidSettings),
		errors.Is(err, app.ErrInvalidFrequency):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrReviewInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, review.ErrConfiguration):
		writeError(w, http.StatusServiceUnavailable, "cannot generate review: analysis service is not configured")
	case errors.Is(err, review.ErrEmptyResponse), errors.Is(err, review.ErrMalformedResponse):
		writeError(w, http.StatusBadGateway, "failed to generate review")
	default:
		h.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
