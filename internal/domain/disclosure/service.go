// Package disclosure reveals a property's exact location and landlord contact
// to callers who paid to unlock it.
package disclosure

import (
	"context"
	"errors"
	"fmt"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/auth"
	"github.com/Meshack-Mesh/house-hunt-view/internal/geo"
)

var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrNotUnlocked      = errors.New("pay to unlock directions and contact details")
)

type PropertyLookup interface {
	GetByID(ctx context.Context, propertyID string) (*api.Listing, error)
}

type ProfileLookup interface {
	GetByID(ctx context.Context, profileID string) (*api.Profile, error)
}

type UnlockChecker interface {
	HasUnlock(ctx context.Context, userID, propertyID string) (bool, error)
}

type ServiceInterface interface {
	Reveal(ctx context.Context, actor auth.Principal, propertyID string) (*api.PropertyDetails, error)
}

type Service struct {
	properties PropertyLookup
	profiles   ProfileLookup
	unlocks    UnlockChecker
}

func NewService(properties PropertyLookup, profiles ProfileLookup, unlocks UnlockChecker) *Service {
	return &Service{
		properties: properties,
		profiles:   profiles,
		unlocks:    unlocks,
	}
}

// Reveal is allowed for the owning landlord, admins and users holding a
// completed unlock payment for the property.
func (s *Service) Reveal(ctx context.Context, actor auth.Principal, propertyID string) (*api.PropertyDetails, error) {
	listing, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if listing == nil {
		return nil, ErrPropertyNotFound
	}

	allowed := actor.IsAdmin() || listing.LandlordId == actor.UserID
	if !allowed {
		allowed, err = s.unlocks.HasUnlock(ctx, actor.UserID, propertyID)
		if err != nil {
			return nil, fmt.Errorf("failed to check unlock: %w", err)
		}
	}
	if !allowed {
		return nil, ErrNotUnlocked
	}

	details := &api.PropertyDetails{
		PropertyId:  listing.Id,
		Title:       listing.Title,
		Location:    listing.Location,
		Coordinates: listing.Coordinates,
	}
	if listing.Coordinates != nil {
		details.DirectionsUrl = geo.DirectionsURL(*listing.Coordinates)
	}

	landlord, err := s.profiles.GetByID(ctx, listing.LandlordId)
	if err != nil {
		return nil, fmt.Errorf("failed to get landlord: %w", err)
	}
	if landlord != nil {
		details.LandlordName = landlord.FullName
		details.LandlordPhone = landlord.Phone
		details.LandlordEmail = landlord.Email
	}

	return details, nil
}
