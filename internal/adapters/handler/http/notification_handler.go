package http

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sync/api/internal/core/domain"
	"github.com/sync/api/internal/core/ports"
)

type NotificationHandler struct {
	subscriptions ports.SubscriptionService
	notifier      ports.NotificationService
	cronSecret    string
}

func NewNotificationHandler(subscriptions ports.SubscriptionService, notifier ports.NotificationService, cronSecret string) *NotificationHandler {
	return &NotificationHandler{
		subscriptions: subscriptions,
		notifier:      notifier,
		cronSecret:    cronSecret,
	}
}

type subscribeRequest struct {
	UserID       string               `json:"userId"`
	Subscription *domain.PushEndpoint `json:"subscription"`
}

func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Subscription == nil || req.Subscription.Endpoint == "" {
		http.Error(w, "missing userId or subscription", http.StatusBadRequest)
		return
	}

	if err := h.subscriptions.Register(r.Context(), req.UserID, *req.Subscription); err != nil {
		http.Error(w, "failed to subscribe", http.StatusInternalServerError)
		return
	}
	writeSuccess(w)
}

func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	// Without a subscription the whole user is unsubscribed, matching the
	// pre-multi-device behavior.
	if err := h.subscriptions.Unregister(r.Context(), req.UserID, req.Subscription); err != nil {
		http.Error(w, "failed to unsubscribe", http.StatusInternalServerError)
		return
	}
	writeSuccess(w)
}

type sendDailyResponse struct {
	Success bool     `json:"success"`
	Sent    int      `json:"sent"`
	Failed  int      `json:"failed"`
	Users   []string `json:"users"`
	Date    string   `json:"date"`
	Message string   `json:"message"`
}

func (h *NotificationHandler) SendDaily(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	report, err := h.notifier.SendDaily(r.Context())
	if err != nil {
		http.Error(w, "failed to send notifications", http.StatusInternalServerError)
		return
	}

	// Delivery failures are reflected in the counts, not the status code.
	w.Header().Set("Content-Type", "application/json")
	resp := sendDailyResponse{
		Success: true,
		Sent:    report.Sent,
		Failed:  report.Failed,
		Users:   report.Users,
		Date:    report.Date,
		Message: fmt.Sprintf("Sent %d notifications, %d failed", report.Sent, report.Failed),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

type sendTestRequest struct {
	UserID string `json:"userId"`
}

func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	var req sendTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	if err := h.notifier.SendTest(r.Context(), req.UserID); err != nil {
		if errors.Is(err, domain.ErrNoSubscription) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if errors.Is(err, domain.ErrEndpointGone) {
			http.Error(w, "push subscription has expired", http.StatusGone)
			return
		}
		http.Error(w, "failed to send test notification", http.StatusInternalServerError)
		return
	}
	writeSuccess(w)
}

func (h *NotificationHandler) authorized(r *http.Request) bool {
	if h.cronSecret == "" {
		return true
	}
	expected := "Bearer " + h.cronSecret
	return subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), []byte(expected)) == 1
}

func writeSuccess(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
