package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/auth"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/disclosure"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/properties"
)

// PropertiesHandler serves the public listing endpoints
type PropertiesHandler struct {
	properties properties.ServiceInterface
	disclosure disclosure.ServiceInterface
}

func NewPropertiesHandler(propertiesService properties.ServiceInterface, disclosureService disclosure.ServiceInterface) *PropertiesHandler {
	return &PropertiesHandler{
		properties: propertiesService,
		disclosure: disclosureService,
	}
}

// SearchProperties handles GET /properties
func (h *PropertiesHandler) SearchProperties(w http.ResponseWriter, r *http.Request, params api.SearchPropertiesParams) {
	list, err := h.properties.Search(r.Context(), params)
	if err != nil {
		if properties.IsBadRequest(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// GetProperty handles GET /properties/{property_id}
func (h *PropertiesHandler) GetProperty(w http.ResponseWriter, r *http.Request, propertyId string) {
	property, err := h.properties.Get(r.Context(), propertyId)
	if err != nil {
		if errors.Is(err, properties.ErrPropertyNotFound) {
			http.Error(w, "Property not found", http.StatusNotFound)
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, property)
}

// GetPropertyImage handles GET /properties/{property_id}/images/{image_id}
func (h *PropertiesHandler) GetPropertyImage(w http.ResponseWriter, r *http.Request, propertyId string, imageId string) {
	image, err := h.properties.OpenImage(r.Context(), propertyId, imageId)
	if err != nil {
		if errors.Is(err, properties.ErrImageNotFound) {
			http.Error(w, "Image not found", http.StatusNotFound)
			return
		}
		internalError(w, r, err)
		return
	}

	if image.RedirectURL != "" {
		http.Redirect(w, r, image.RedirectURL, http.StatusFound)
		return
	}
	defer image.Body.Close()

	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, image.Body); err != nil {
		logger.Warn().Err(err).Str("image_id", imageId).Msg("Image stream interrupted")
	}
}

// GetPropertyDetails handles GET /properties/{property_id}/details.
// Coordinates and landlord contact are only returned once unlocked.
func (h *PropertiesHandler) GetPropertyDetails(w http.ResponseWriter, r *http.Request, propertyId string) {
	actor, ok := auth.Require(w, r)
	if !ok {
		return
	}

	details, err := h.disclosure.Reveal(r.Context(), actor, propertyId)
	if err != nil {
		switch {
		case errors.Is(err, disclosure.ErrPropertyNotFound):
			http.Error(w, "Property not found", http.StatusNotFound)
		case errors.Is(err, disclosure.ErrNotUnlocked):
			http.Error(w, err.Error(), http.StatusPaymentRequired)
		default:
			internalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, details)
}
