package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface is implemented by the HTTP layer of the service.
type ServerInterface interface {
	PostAuthSignup(w http.ResponseWriter, r *http.Request)
	PostAuthLogin(w http.ResponseWriter, r *http.Request)

	SearchProperties(w http.ResponseWriter, r *http.Request, params SearchPropertiesParams)
	GetProperty(w http.ResponseWriter, r *http.Request, propertyId string)
	GetPropertyImage(w http.ResponseWriter, r *http.Request, propertyId string, imageId string)
	GetPropertyDetails(w http.ResponseWriter, r *http.Request, propertyId string)
	PostPropertyUnlock(w http.ResponseWriter, r *http.Request, propertyId string)

	GetPayment(w http.ResponseWriter, r *http.Request, paymentId string)
	PostPaymentCallback(w http.ResponseWriter, r *http.Request, callbackToken string)
	PostListingFee(w http.ResponseWriter, r *http.Request)

	ListLandlordProperties(w http.ResponseWriter, r *http.Request)
	CreateLandlordProperty(w http.ResponseWriter, r *http.Request)
	UpdateLandlordProperty(w http.ResponseWriter, r *http.Request, propertyId string)
	DeleteLandlordProperty(w http.ResponseWriter, r *http.Request, propertyId string)
	UploadPropertyImage(w http.ResponseWriter, r *http.Request, propertyId string)

	SearchLocations(w http.ResponseWriter, r *http.Request, params SearchLocationsParams)
	PostContact(w http.ResponseWriter, r *http.Request)

	GetAdminStats(w http.ResponseWriter, r *http.Request)
	ListAdminMessages(w http.ResponseWriter, r *http.Request)
	MarkAdminMessageRead(w http.ResponseWriter, r *http.Request, messageId string)
	ReplyAdminMessage(w http.ResponseWriter, r *http.Request, messageId string)
}

// HandlerFromMux registers every route of si on r and returns r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	w := &wrapper{si: si}

	r.Post("/auth/signup", si.PostAuthSignup)
	r.Post("/auth/login", si.PostAuthLogin)

	r.Get("/properties", w.searchProperties)
	r.Get("/properties/{property_id}", w.getProperty)
	r.Get("/properties/{property_id}/images/{image_id}", w.getPropertyImage)
	r.Get("/properties/{property_id}/details", w.getPropertyDetails)
	r.Post("/properties/{property_id}/unlock", w.postPropertyUnlock)

	r.Get("/payments/{payment_id}", w.getPayment)
	r.Post("/payments/callback/{callback_token}", w.postPaymentCallback)
	r.Post("/listing-fees", si.PostListingFee)

	r.Get("/landlord/properties", si.ListLandlordProperties)
	r.Post("/landlord/properties", si.CreateLandlordProperty)
	r.Put("/landlord/properties/{property_id}", w.updateLandlordProperty)
	r.Delete("/landlord/properties/{property_id}", w.deleteLandlordProperty)
	r.Post("/landlord/properties/{property_id}/images", w.uploadPropertyImage)

	r.Get("/locations", w.searchLocations)
	r.Post("/contact", si.PostContact)

	r.Get("/admin/stats", si.GetAdminStats)
	r.Get("/admin/messages", si.ListAdminMessages)
	r.Post("/admin/messages/{message_id}/read", w.markAdminMessageRead)
	r.Post("/admin/messages/{message_id}/reply", w.replyAdminMessage)

	return r
}

type wrapper struct {
	si ServerInterface
}

func bindPath(r *http.Request, name string) (string, error) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return value, nil
}

func (w *wrapper) searchProperties(rw http.ResponseWriter, r *http.Request) {
	var params SearchPropertiesParams
	query := r.URL.Query()

	binds := []struct {
		name string
		dest interface{}
	}{
		{"q", &params.Q},
		{"min_price", &params.MinPrice},
		{"max_price", &params.MaxPrice},
		{"bedrooms", &params.Bedrooms},
		{"lat", &params.Lat},
		{"lng", &params.Lng},
		{"near", &params.Near},
		{"radius_km", &params.RadiusKm},
		{"sort", &params.Sort},
		{"limit", &params.Limit},
		{"offset", &params.Offset},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			http.Error(rw, fmt.Sprintf("invalid format for parameter %s", b.name), http.StatusBadRequest)
			return
		}
	}

	w.si.SearchProperties(rw, r, params)
}

func (w *wrapper) searchLocations(rw http.ResponseWriter, r *http.Request) {
	var params SearchLocationsParams
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &params.Q); err != nil {
		http.Error(rw, "invalid format for parameter q", http.StatusBadRequest)
		return
	}
	w.si.SearchLocations(rw, r, params)
}

func (w *wrapper) withPropertyID(rw http.ResponseWriter, r *http.Request, next func(string)) {
	propertyID, err := bindPath(r, "property_id")
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	next(propertyID)
}

func (w *wrapper) getProperty(rw http.ResponseWriter, r *http.Request) {
	w.withPropertyID(rw, r, func(id string) { w.si.GetProperty(rw, r, id) })
}

func (w *wrapper) getPropertyImage(rw http.ResponseWriter, r *http.Request) {
	w.withPropertyID(rw, r, func(id string) {
		imageID, err := bindPath(r, "image_id")
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		w.si.GetPropertyImage(rw, r, id, imageID)
	})
}

func (w *wrapper) getPropertyDetails(rw http.ResponseWriter, r *http.Request) {
	w.withPropertyID(rw, r, func(id string) { w.si.GetPropertyDetails(rw, r, id) })
}

func (w *wrapper) postPropertyUnlock(rw http.ResponseWriter, r *http.Request) {
	w.withPropertyID(rw, r, func(id string) { w.si.PostPropertyUnlock(rw, r, id) })
}

func (w *wrapper) updateLandlordProperty(rw http.ResponseWriter, r *http.Request) {
	w.withPropertyID(rw, r, func(id string) { w.si.UpdateLandlordProperty(rw, r, id) })
}

func (w *wrapper) deleteLandlordProperty(rw http.ResponseWriter, r *http.Request) {
	w.withPropertyID(rw, r, func(id string) { w.si.DeleteLandlordProperty(rw, r, id) })
}

func (w *wrapper) uploadPropertyImage(rw http.ResponseWriter, r *http.Request) {
	w.withPropertyID(rw, r, func(id string) { w.si.UploadPropertyImage(rw, r, id) })
}

func (w *wrapper) getPayment(rw http.ResponseWriter, r *http.Request) {
	paymentID, err := bindPath(r, "payment_id")
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	w.si.GetPayment(rw, r, paymentID)
}

func (w *wrapper) postPaymentCallback(rw http.ResponseWriter, r *http.Request) {
	w.si.PostPaymentCallback(rw, r, chi.URLParam(r, "callback_token"))
}

func (w *wrapper) markAdminMessageRead(rw http.ResponseWriter, r *http.Request) {
	messageID, err := bindPath(r, "message_id")
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	w.si.MarkAdminMessageRead(rw, r, messageID)
}

func (w *wrapper) replyAdminMessage(rw http.ResponseWriter, r *http.Request) {
	messageID, err := bindPath(r, "message_id")
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	w.si.ReplyAdminMessage(rw, r, messageID)
}
