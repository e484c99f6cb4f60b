package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sync/api/internal/config"
	"github.com/sync/api/internal/core/domain"
	"github.com/sync/api/internal/core/ports"
)

type RoundHandler struct {
	service ports.RoundService
	cfg     config.Config
}

func NewRoundHandler(service ports.RoundService, cfg config.Config) *RoundHandler {
	return &RoundHandler{
		service: service,
		cfg:     cfg,
	}
}

func (h *RoundHandler) GetRound(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date parameter required", http.StatusBadRequest)
		return
	}

	round, created, err := h.service.FetchOrCreate(r.Context(), date)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDate) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if created {
		w.WriteHeader(http.StatusCreated)
	}
	if err := json.NewEncoder(w).Encode(round); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

type submitRequest struct {
	Date   string `json:"date"`
	UserID string `json:"userId"`
	Answer string `json:"answer"`
	Guess  string `json:"guess"`
}

type submitResponse struct {
	Success       bool `json:"success"`
	BothCompleted bool `json:"both_completed"`
	PointsEarned  *int `json:"points_earned,omitempty"`
}

func (h *RoundHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Date == "" || req.UserID == "" || req.Answer == "" || req.Guess == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	participant, ok := h.cfg.ResolveParticipant(req.UserID)
	if !ok {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	input := ports.SubmitInput{
		Date:        req.Date,
		Participant: participant,
		Answer:      domain.OptionID(req.Answer),
		Guess:       domain.OptionID(req.Guess),
	}

	result, err := h.service.Submit(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOption) || errors.Is(err, domain.ErrInvalidParticipant) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, domain.ErrAlreadySubmitted) {
			http.Error(w, "you have already submitted your answers", http.StatusBadRequest)
			return
		}
		if errors.Is(err, domain.ErrRoundNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := submitResponse{
		Success:       true,
		BothCompleted: result.BothCompleted,
		PointsEarned:  result.PointsEarned,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
