package properties

import (
	"context"
	"io"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
)

type Repository interface {
	// ListAvailable returns every available listing with its images, newest first.
	ListAvailable(ctx context.Context) ([]*api.Listing, error)

	GetByID(ctx context.Context, propertyID string) (*api.Listing, error)

	ListByLandlord(ctx context.Context, landlordID string) ([]*api.Listing, error)

	Create(ctx context.Context, listing *api.Listing) error

	// CreateWithListingFee binds one completed, unconsumed listing-fee payment of
	// the landlord to the new listing in the same transaction. It returns false
	// when the landlord has no such payment.
	CreateWithListingFee(ctx context.Context, listing *api.Listing) (bool, error)

	Update(ctx context.Context, listing *api.Listing) error

	// Delete removes the listing and returns the blob ids of its stored images.
	Delete(ctx context.Context, propertyID string) ([]string, error)

	// AddImage stores the image row; the first image of a listing becomes primary.
	AddImage(ctx context.Context, image *api.PropertyImage) error

	GetImage(ctx context.Context, propertyID, imageID string) (*api.PropertyImage, error)
}

type Cache interface {
	GetAvailable(ctx context.Context) ([]*api.Listing, error)
	SetAvailable(ctx context.Context, listings []*api.Listing, ttl time.Duration) error
	InvalidateAvailable(ctx context.Context) error
}

// ImageStore keeps uploaded image bytes.
type ImageStore interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, blobID string) (io.ReadCloser, error)
	Delete(ctx context.Context, blobID string) error
}

// LocationResolver turns a place name into coordinates.
type LocationResolver interface {
	Resolve(name string) (api.Location, error)
}
