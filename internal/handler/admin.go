package handler

import (
	"errors"
	"net/http"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/auth"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/dashboard"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/messages"
)

// AdminHandler serves the admin dashboard and contact inbox
type AdminHandler struct {
	dashboard dashboard.ServiceInterface
	messages  messages.ServiceInterface
}

func NewAdminHandler(dashboardService dashboard.ServiceInterface, messagesService messages.ServiceInterface) *AdminHandler {
	return &AdminHandler{
		dashboard: dashboardService,
		messages:  messagesService,
	}
}

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	actor, ok := auth.Require(w, r)
	if !ok {
		return false
	}
	if !actor.IsAdmin() {
		http.Error(w, "Admin access required", http.StatusForbidden)
		return false
	}
	return true
}

func (h *AdminHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, messages.ErrMessageNotFound):
		http.Error(w, "Message not found", http.StatusNotFound)
	case errors.Is(err, messages.ErrInvalidReply):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, messages.ErrDeliveryFailed):
		http.Error(w, "Failed to send reply email", http.StatusBadGateway)
	default:
		internalError(w, r, err)
	}
}

// GetAdminStats handles GET /admin/stats
func (h *AdminHandler) GetAdminStats(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListAdminMessages handles GET /admin/messages
func (h *AdminHandler) ListAdminMessages(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	msgs, err := h.messages.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// MarkAdminMessageRead handles POST /admin/messages/{message_id}/read
func (h *AdminHandler) MarkAdminMessageRead(w http.ResponseWriter, r *http.Request, messageId string) {
	if !requireAdmin(w, r) {
		return
	}

	msg, err := h.messages.MarkRead(r.Context(), messageId)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// ReplyAdminMessage handles POST /admin/messages/{message_id}/reply
func (h *AdminHandler) ReplyAdminMessage(w http.ResponseWriter, r *http.Request, messageId string) {
	if !requireAdmin(w, r) {
		return
	}

	var req api.ReplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.messages.Reply(r.Context(), messageId, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
