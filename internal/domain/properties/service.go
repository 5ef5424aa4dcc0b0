package properties

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/auth"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	ErrPropertyNotFound   = errors.New("property not found")
	ErrImageNotFound      = errors.New("image not found")
	ErrInvalidProperty    = errors.New("invalid property")
	ErrInvalidImage       = errors.New("file must be an image")
	ErrInvalidSearch      = errors.New("invalid search")
	ErrUnknownLocation    = errors.New("unknown location")
	ErrForbidden          = errors.New("not allowed to manage this property")
	ErrListingFeeRequired = errors.New("listing fee payment required")
)

const (
	DefaultPeriod = "per month"
	DefaultImage  = "https://images.unsplash.com/photo-1487958449943-2429e8be8625?w=800&h=600&fit=crop"

	availableCacheTTL  = time.Minute
	availableFlightKey = "available"
)

type ServiceInterface interface {
	Search(ctx context.Context, params api.SearchPropertiesParams) (*api.PropertyList, error)
	Get(ctx context.Context, propertyID string) (*api.Property, error)

	ListOwn(ctx context.Context, actor auth.Principal) ([]*api.Listing, error)
	Create(ctx context.Context, actor auth.Principal, input *api.PropertyInput) (*api.Listing, error)
	Update(ctx context.Context, actor auth.Principal, propertyID string, input *api.PropertyInput) (*api.Listing, error)
	Delete(ctx context.Context, actor auth.Principal, propertyID string) error

	AddImage(ctx context.Context, actor auth.Principal, propertyID string, upload *ImageUpload) (*api.PropertyImage, error)
	OpenImage(ctx context.Context, propertyID, imageID string) (*Image, error)
}

// ImageUpload is a single uploaded file.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Image is either a stored blob (Body set) or an external URL (RedirectURL set).
type Image struct {
	ContentType string
	Body        io.ReadCloser
	RedirectURL string
}

type Service struct {
	repo               Repository
	cache              Cache
	images             ImageStore
	locations          LocationResolver
	singleFlight       *singleflight.Group
	listingFeeRequired bool
	now                func() time.Time
}

func NewService(repo Repository, images ImageStore, locations LocationResolver, listingFeeRequired bool) *Service {
	return NewServiceWithCache(repo, nil, images, locations, listingFeeRequired)
}

func NewServiceWithCache(repo Repository, cache Cache, images ImageStore, locations LocationResolver, listingFeeRequired bool) *Service {
	return &Service{
		repo:               repo,
		cache:              cache,
		images:             images,
		locations:          locations,
		singleFlight:       &singleflight.Group{},
		listingFeeRequired: listingFeeRequired,
		now:                time.Now,
	}
}

func (s *Service) Get(ctx context.Context, propertyID string) (*api.Property, error) {
	listing, err := s.repo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if listing == nil || listing.Status != api.PropertyAvailable {
		return nil, ErrPropertyNotFound
	}
	return toPublic(listing, nil), nil
}

// available loads the available set through the cache. Concurrent misses
// share one database read.
func (s *Service) available(ctx context.Context) ([]*api.Listing, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetAvailable(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	result, err, _ := s.singleFlight.Do(availableFlightKey, func() (interface{}, error) {
		listings, err := s.repo.ListAvailable(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list properties: %w", err)
		}
		if s.cache != nil {
			_ = s.cache.SetAvailable(ctx, listings, availableCacheTTL)
		}
		return listings, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]*api.Listing), nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.InvalidateAvailable(ctx)
	}
}

func (s *Service) ListOwn(ctx context.Context, actor auth.Principal) ([]*api.Listing, error) {
	if !canManage(actor) {
		return nil, ErrForbidden
	}
	listings, err := s.repo.ListByLandlord(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list own properties: %w", err)
	}
	return listings, nil
}

func (s *Service) Create(ctx context.Context, actor auth.Principal, input *api.PropertyInput) (*api.Listing, error) {
	if !canManage(actor) {
		return nil, ErrForbidden
	}
	if err := normalizeInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	listing := &api.Listing{
		Id:         uuid.New().String(),
		LandlordId: actor.UserID,
		Images:     []api.PropertyImage{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyInput(listing, input)

	if s.listingFeeRequired && !actor.IsAdmin() {
		consumed, err := s.repo.CreateWithListingFee(ctx, listing)
		if err != nil {
			return nil, fmt.Errorf("failed to create property: %w", err)
		}
		if !consumed {
			return nil, ErrListingFeeRequired
		}
	} else if err := s.repo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	s.invalidate(ctx)
	return listing, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Principal, propertyID string, input *api.PropertyInput) (*api.Listing, error) {
	listing, err := s.owned(ctx, actor, propertyID)
	if err != nil {
		return nil, err
	}
	if err := normalizeInput(input); err != nil {
		return nil, err
	}

	applyInput(listing, input)
	listing.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	s.invalidate(ctx)
	return listing, nil
}

func (s *Service) Delete(ctx context.Context, actor auth.Principal, propertyID string) error {
	if _, err := s.owned(ctx, actor, propertyID); err != nil {
		return err
	}

	blobIDs, err := s.repo.Delete(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	s.invalidate(ctx)

	if s.images != nil {
		for _, id := range blobIDs {
			_ = s.images.Delete(ctx, id)
		}
	}
	return nil
}

func (s *Service) AddImage(ctx context.Context, actor auth.Principal, propertyID string, upload *ImageUpload) (*api.PropertyImage, error) {
	if _, err := s.owned(ctx, actor, propertyID); err != nil {
		return nil, err
	}
	if upload == nil || upload.Body == nil || !strings.HasPrefix(upload.ContentType, "image/") {
		return nil, ErrInvalidImage
	}
	if s.images == nil {
		return nil, fmt.Errorf("image storage is not configured")
	}

	blobID, err := s.images.Upload(ctx, upload.Filename, upload.ContentType, upload.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	imageID := uuid.New().String()
	image := &api.PropertyImage{
		Id:          imageID,
		PropertyId:  propertyID,
		ImageUrl:    fmt.Sprintf("/properties/%s/images/%s", propertyID, imageID),
		BlobId:      blobID,
		ContentType: upload.ContentType,
		CreatedAt:   s.now(),
	}
	if err := s.repo.AddImage(ctx, image); err != nil {
		_ = s.images.Delete(ctx, blobID)
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	s.invalidate(ctx)
	return image, nil
}

func (s *Service) OpenImage(ctx context.Context, propertyID, imageID string) (*Image, error) {
	image, err := s.repo.GetImage(ctx, propertyID, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	if image == nil {
		return nil, ErrImageNotFound
	}

	// Seeded images point at external URLs and have no blob.
	if image.BlobId == "" {
		return &Image{RedirectURL: image.ImageUrl}, nil
	}
	if s.images == nil {
		return nil, ErrImageNotFound
	}

	body, err := s.images.Open(ctx, image.BlobId)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if body == nil {
		return nil, ErrImageNotFound
	}
	return &Image{ContentType: image.ContentType, Body: body}, nil
}

func (s *Service) owned(ctx context.Context, actor auth.Principal, propertyID string) (*api.Listing, error) {
	if !canManage(actor) {
		return nil, ErrForbidden
	}
	listing, err := s.repo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if listing == nil {
		return nil, ErrPropertyNotFound
	}
	if listing.LandlordId != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return listing, nil
}

func canManage(actor auth.Principal) bool {
	return actor.Role == api.RoleLandlord || actor.IsAdmin()
}
