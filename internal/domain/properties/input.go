package properties

import (
	"fmt"
	"strings"

	"github.com/Meshack-Mesh/house-hunt-view/api"
)

var validPeriods = map[string]bool{
	"per month": true,
	"per year":  true,
}

var validStatuses = map[api.PropertyStatus]bool{
	api.PropertyAvailable:   true,
	api.PropertyRented:      true,
	api.PropertyMaintenance: true,
}

// normalizeInput fills defaults and rejects invalid landlord input.
func normalizeInput(in *api.PropertyInput) error {
	if in == nil {
		return fmt.Errorf("%w: empty body", ErrInvalidProperty)
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	in.Area = strings.TrimSpace(in.Area)

	switch {
	case in.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidProperty)
	case in.Location == "":
		return fmt.Errorf("%w: location is required", ErrInvalidProperty)
	case in.Area == "":
		return fmt.Errorf("%w: area is required", ErrInvalidProperty)
	case in.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidProperty)
	case in.Bedrooms < 0 || in.Bathrooms < 0:
		return fmt.Errorf("%w: bedrooms and bathrooms must not be negative", ErrInvalidProperty)
	}

	if in.Period == "" {
		in.Period = DefaultPeriod
	}
	if !validPeriods[in.Period] {
		return fmt.Errorf("%w: period must be 'per month' or 'per year'", ErrInvalidProperty)
	}

	if in.Status == "" {
		in.Status = api.PropertyAvailable
	}
	if !validStatuses[in.Status] {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidProperty, in.Status)
	}

	if in.TotalUnits == 0 {
		in.TotalUnits = 1
	}
	if in.RemainingUnits == 0 && in.Status == api.PropertyAvailable {
		in.RemainingUnits = in.TotalUnits
	}
	if in.TotalUnits < 1 || in.RemainingUnits < 0 || in.RemainingUnits > in.TotalUnits {
		return fmt.Errorf("%w: remaining_units must be between 0 and total_units", ErrInvalidProperty)
	}

	if in.Coordinates != nil && !in.Coordinates.Valid() {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidProperty)
	}

	features := make([]string, 0, len(in.Features))
	for _, f := range in.Features {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	in.Features = features

	return nil
}

func applyInput(l *api.Listing, in *api.PropertyInput) {
	l.Title = in.Title
	l.Location = in.Location
	l.Price = in.Price
	l.Period = in.Period
	l.Bedrooms = in.Bedrooms
	l.Bathrooms = in.Bathrooms
	l.Area = in.Area
	l.Description = in.Description
	l.Features = in.Features
	l.Coordinates = in.Coordinates
	l.Status = in.Status
	l.RemainingUnits = in.RemainingUnits
	l.TotalUnits = in.TotalUnits
}
