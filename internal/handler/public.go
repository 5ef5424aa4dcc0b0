package handler

import (
	"errors"
	"net/http"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/locations"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/messages"
)

// LocationsHandler serves the place-name gazetteer
type LocationsHandler struct {
	locations locations.ServiceInterface
}

func NewLocationsHandler(locationsService locations.ServiceInterface) *LocationsHandler {
	return &LocationsHandler{locations: locationsService}
}

// SearchLocations handles GET /locations
func (h *LocationsHandler) SearchLocations(w http.ResponseWriter, r *http.Request, params api.SearchLocationsParams) {
	q := ""
	if params.Q != nil {
		q = *params.Q
	}
	writeJSON(w, http.StatusOK, h.locations.Search(q))
}

// ContactHandler accepts messages from the public contact form
type ContactHandler struct {
	messages messages.ServiceInterface
}

func NewContactHandler(messagesService messages.ServiceInterface) *ContactHandler {
	return &ContactHandler{messages: messagesService}
}

// PostContact handles POST /contact
func (h *ContactHandler) PostContact(w http.ResponseWriter, r *http.Request) {
	var req api.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.messages.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, messages.ErrInvalidMessage) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
