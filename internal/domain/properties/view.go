package properties

import (
	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/pricing"
)

// toPublic strips coordinates and landlord identity from a listing.
func toPublic(l *api.Listing, distanceKm *float64) *api.Property {
	images := l.Images
	if images == nil {
		images = []api.PropertyImage{}
	}
	features := l.Features
	if features == nil {
		features = []string{}
	}

	return &api.Property{
		Id:             l.Id,
		Title:          l.Title,
		Location:       l.Location,
		Price:          l.Price,
		DisplayPrice:   pricing.FormatKES(l.Price),
		Period:         l.Period,
		Bedrooms:       l.Bedrooms,
		Bathrooms:      l.Bathrooms,
		Area:           l.Area,
		Description:    l.Description,
		Features:       features,
		Image:          primaryImage(images),
		Images:         images,
		HasCoordinates: l.Coordinates != nil,
		DistanceKm:     distanceKm,
		RemainingUnits: l.RemainingUnits,
		TotalUnits:     l.TotalUnits,
		Status:         l.Status,
		CreatedAt:      l.CreatedAt,
	}
}

func primaryImage(images []api.PropertyImage) string {
	for _, img := range images {
		if img.IsPrimary {
			return img.ImageUrl
		}
	}
	if len(images) > 0 {
		return images[0].ImageUrl
	}
	return DefaultImage
}
