package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/jackc/pgx/v5"
)

const propertyColumns = `
	id, landlord_id, title, location, price, period, bedrooms, bathrooms,
	area, description, features, lat, lng, status, remaining_units,
	total_units, listing_payment_id, created_at, updated_at`

// PropertyRepository implements properties.Repository using PostgreSQL
type PropertyRepository struct {
	db *DB
}

func NewPropertyRepository(db *DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func scanListing(row pgx.Row) (*api.Listing, error) {
	var l api.Listing
	var status string
	var lat, lng *float64

	err := row.Scan(
		&l.Id,
		&l.LandlordId,
		&l.Title,
		&l.Location,
		&l.Price,
		&l.Period,
		&l.Bedrooms,
		&l.Bathrooms,
		&l.Area,
		&l.Description,
		&l.Features,
		&lat,
		&lng,
		&status,
		&l.RemainingUnits,
		&l.TotalUnits,
		&l.ListingPaymentId,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Status = api.PropertyStatus(status)
	if lat != nil && lng != nil {
		l.Coordinates = &api.Coordinates{Lat: *lat, Lng: *lng}
	}
	if l.Features == nil {
		l.Features = []string{}
	}
	return &l, nil
}

func (r *PropertyRepository) queryListings(ctx context.Context, query string, args ...any) ([]*api.Listing, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	listings := make([]*api.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}

	if err := r.attachImages(ctx, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// attachImages loads images for all listings in one query.
func (r *PropertyRepository) attachImages(ctx context.Context, listings []*api.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	ids := make([]string, 0, len(listings))
	byID := make(map[string]*api.Listing, len(listings))
	for _, l := range listings {
		ids = append(ids, l.Id)
		byID[l.Id] = l
		l.Images = []api.PropertyImage{}
	}

	query := `
		SELECT id, property_id, image_url, blob_id, content_type, is_primary, created_at
		FROM property_images
		WHERE property_id = ANY($1::text[]::uuid[])
		ORDER BY is_primary DESC, created_at
	`
	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return fmt.Errorf("failed to scan image: %w", err)
		}
		if l, ok := byID[img.PropertyId]; ok {
			l.Images = append(l.Images, *img)
		}
	}
	return rows.Err()
}

func scanImage(row pgx.Row) (*api.PropertyImage, error) {
	var img api.PropertyImage
	err := row.Scan(
		&img.Id,
		&img.PropertyId,
		&img.ImageUrl,
		&img.BlobId,
		&img.ContentType,
		&img.IsPrimary,
		&img.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *PropertyRepository) ListAvailable(ctx context.Context) ([]*api.Listing, error) {
	query := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE status = 'available'
		ORDER BY created_at DESC
	`
	return r.queryListings(ctx, query)
}

func (r *PropertyRepository) ListByLandlord(ctx context.Context, landlordID string) ([]*api.Listing, error) {
	if !validID(landlordID) {
		return []*api.Listing{}, nil
	}
	query := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE landlord_id = $1
		ORDER BY created_at DESC
	`
	return r.queryListings(ctx, query, landlordID)
}

func (r *PropertyRepository) GetByID(ctx context.Context, propertyID string) (*api.Listing, error) {
	if !validID(propertyID) {
		return nil, nil
	}
	query := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE id = $1
	`
	l, err := scanListing(r.db.Pool.QueryRow(ctx, query, propertyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property: %w", err)
	}

	if err := r.attachImages(ctx, []*api.Listing{l}); err != nil {
		return nil, err
	}
	return l, nil
}

const insertProperty = `
	INSERT INTO properties (
		id, landlord_id, title, location, price, period, bedrooms, bathrooms,
		area, description, features, lat, lng, status, remaining_units,
		total_units, listing_payment_id, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
`

func insertArgs(l *api.Listing) []any {
	lat, lng := coordinateArgs(l.Coordinates)
	return []any{
		l.Id,
		l.LandlordId,
		l.Title,
		l.Location,
		l.Price,
		l.Period,
		l.Bedrooms,
		l.Bathrooms,
		l.Area,
		l.Description,
		nonNilFeatures(l.Features),
		lat,
		lng,
		string(l.Status),
		l.RemainingUnits,
		l.TotalUnits,
		l.ListingPaymentId,
		l.CreatedAt,
		l.UpdatedAt,
	}
}

func (r *PropertyRepository) Create(ctx context.Context, listing *api.Listing) error {
	if _, err := r.db.Pool.Exec(ctx, insertProperty, insertArgs(listing)...); err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

// CreateWithListingFee consumes one completed listing-fee payment of the
// landlord. SKIP LOCKED keeps two concurrent creates from taking the same one.
func (r *PropertyRepository) CreateWithListingFee(ctx context.Context, listing *api.Listing) (bool, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	feeQuery := `
		SELECT p.id
		FROM payments p
		WHERE p.user_id = $1
		  AND p.payment_type = 'listing_subscription'
		  AND p.status = 'completed'
		  AND NOT EXISTS (SELECT 1 FROM properties pr WHERE pr.listing_payment_id = p.id)
		ORDER BY p.created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	var paymentID string
	if err := tx.QueryRow(ctx, feeQuery, listing.LandlordId).Scan(&paymentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find listing fee: %w", err)
	}
	listing.ListingPaymentId = &paymentID

	if _, err := tx.Exec(ctx, insertProperty, insertArgs(listing)...); err != nil {
		return false, fmt.Errorf("failed to insert property: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

func (r *PropertyRepository) Update(ctx context.Context, l *api.Listing) error {
	query := `
		UPDATE properties SET
			title = $2, location = $3, price = $4, period = $5, bedrooms = $6,
			bathrooms = $7, area = $8, description = $9, features = $10,
			lat = $11, lng = $12, status = $13, remaining_units = $14,
			total_units = $15, updated_at = $16
		WHERE id = $1
	`
	lat, lng := coordinateArgs(l.Coordinates)
	_, err := r.db.Pool.Exec(ctx, query,
		l.Id,
		l.Title,
		l.Location,
		l.Price,
		l.Period,
		l.Bedrooms,
		l.Bathrooms,
		l.Area,
		l.Description,
		nonNilFeatures(l.Features),
		lat,
		lng,
		string(l.Status),
		l.RemainingUnits,
		l.TotalUnits,
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, propertyID string) ([]string, error) {
	if !validID(propertyID) {
		return nil, nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT blob_id FROM property_images WHERE property_id = $1 AND blob_id <> ''`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	blobIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan blob ids: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM properties WHERE id = $1`, propertyID); err != nil {
		return nil, fmt.Errorf("failed to delete property: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return blobIDs, nil
}

func (r *PropertyRepository) AddImage(ctx context.Context, img *api.PropertyImage) error {
	query := `
		INSERT INTO property_images (id, property_id, image_url, blob_id, content_type, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5,
			NOT EXISTS (SELECT 1 FROM property_images WHERE property_id = $2),
			$6)
		RETURNING is_primary
	`
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}
	err := r.db.Pool.QueryRow(ctx, query,
		img.Id,
		img.PropertyId,
		img.ImageUrl,
		img.BlobId,
		img.ContentType,
		img.CreatedAt,
	).Scan(&img.IsPrimary)
	if err != nil {
		return fmt.Errorf("failed to insert image: %w", err)
	}
	return nil
}

func (r *PropertyRepository) GetImage(ctx context.Context, propertyID, imageID string) (*api.PropertyImage, error) {
	if !validID(propertyID) || !validID(imageID) {
		return nil, nil
	}
	query := `
		SELECT id, property_id, image_url, blob_id, content_type, is_primary, created_at
		FROM property_images
		WHERE id = $1 AND property_id = $2
	`
	img, err := scanImage(r.db.Pool.QueryRow(ctx, query, imageID, propertyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query image: %w", err)
	}
	return img, nil
}

func coordinateArgs(c *api.Coordinates) (*float64, *float64) {
	if c == nil {
		return nil, nil
	}
	lat, lng := c.Lat, c.Lng
	return &lat, &lng
}

func nonNilFeatures(f []string) []string {
	if f == nil {
		return []string{}
	}
	return f
}
