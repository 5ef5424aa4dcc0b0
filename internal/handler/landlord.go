package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/auth"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/properties"
)

const (
	MaxImageBytes = 10 << 20

	// multipart framing on top of the file itself
	multipartOverhead = 1 << 20
	sniffLen          = 512
)

// LandlordHandler serves property management for landlords
type LandlordHandler struct {
	properties properties.ServiceInterface
}

func NewLandlordHandler(propertiesService properties.ServiceInterface) *LandlordHandler {
	return &LandlordHandler{properties: propertiesService}
}

func (h *LandlordHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, properties.ErrPropertyNotFound):
		http.Error(w, "Property not found", http.StatusNotFound)
	case errors.Is(err, properties.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, properties.ErrListingFeeRequired):
		http.Error(w, "Listing fee payment required", http.StatusPaymentRequired)
	case errors.Is(err, properties.ErrInvalidProperty),
		errors.Is(err, properties.ErrInvalidImage),
		errors.Is(err, properties.ErrUnknownLocation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		internalError(w, r, err)
	}
}

// ListLandlordProperties handles GET /landlord/properties
func (h *LandlordHandler) ListLandlordProperties(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.Require(w, r)
	if !ok {
		return
	}

	listings, err := h.properties.ListOwn(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// CreateLandlordProperty handles POST /landlord/properties
func (h *LandlordHandler) CreateLandlordProperty(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.Require(w, r)
	if !ok {
		return
	}

	var input api.PropertyInput
	if err := decodeJSON(w, r, &input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	listing, err := h.properties.Create(r.Context(), actor, &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

// UpdateLandlordProperty handles PUT /landlord/properties/{property_id}
func (h *LandlordHandler) UpdateLandlordProperty(w http.ResponseWriter, r *http.Request, propertyId string) {
	actor, ok := auth.Require(w, r)
	if !ok {
		return
	}

	var input api.PropertyInput
	if err := decodeJSON(w, r, &input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	listing, err := h.properties.Update(r.Context(), actor, propertyId, &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// DeleteLandlordProperty handles DELETE /landlord/properties/{property_id}
func (h *LandlordHandler) DeleteLandlordProperty(w http.ResponseWriter, r *http.Request, propertyId string) {
	actor, ok := auth.Require(w, r)
	if !ok {
		return
	}

	if err := h.properties.Delete(r.Context(), actor, propertyId); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadPropertyImage handles POST /landlord/properties/{property_id}/images.
// The body is multipart with a single "file" part of at most MaxImageBytes.
func (h *LandlordHandler) UploadPropertyImage(w http.ResponseWriter, r *http.Request, propertyId string) {
	actor, ok := auth.Require(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(MaxImageBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > MaxImageBytes {
		http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	// Trust the bytes, not the declared part type.
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}
	head = head[:n]

	image, err := h.properties.AddImage(r.Context(), actor, propertyId, &properties.ImageUpload{
		Filename:    header.Filename,
		ContentType: http.DetectContentType(head),
		Body:        io.MultiReader(bytes.NewReader(head), file),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, image)
}
