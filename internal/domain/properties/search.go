package properties

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/geo"
)

const (
	SortNewest    = "newest"
	SortDistance  = "distance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"

	DefaultLimit = 20
	MaxLimit     = 100
)

type filter struct {
	text      string
	minPrice  float64
	maxPrice  *float64
	bedrooms  int
	reference *api.Coordinates
	radiusKm  *float64
	sort      string
	limit     int
	offset    int
}

type hit struct {
	listing *api.Listing
	km      float64
	// distance is the bucketed value shown to callers.
	distance *float64
}

// Search returns available properties matching params.
func (s *Service) Search(ctx context.Context, params api.SearchPropertiesParams) (*api.PropertyList, error) {
	f, err := s.buildFilter(params)
	if err != nil {
		return nil, err
	}

	listings, err := s.available(ctx)
	if err != nil {
		return nil, err
	}

	hits := make([]hit, 0, len(listings))
	for _, l := range listings {
		if h, ok := f.match(l); ok {
			hits = append(hits, h)
		}
	}

	sortHits(hits, f.sort)

	total := len(hits)
	start := f.offset
	if start > total {
		start = total
	}
	end := start + f.limit
	if end > total {
		end = total
	}

	items := make([]api.Property, 0, end-start)
	for _, h := range hits[start:end] {
		items = append(items, *toPublic(h.listing, h.distance))
	}

	return &api.PropertyList{
		Items:     items,
		Total:     total,
		Reference: f.reference,
	}, nil
}

func (s *Service) buildFilter(p api.SearchPropertiesParams) (*filter, error) {
	f := &filter{
		limit: DefaultLimit,
	}

	if p.Q != nil {
		f.text = strings.ToLower(strings.TrimSpace(*p.Q))
	}
	if p.MinPrice != nil {
		if *p.MinPrice < 0 {
			return nil, fmt.Errorf("%w: min_price must not be negative", ErrInvalidSearch)
		}
		f.minPrice = *p.MinPrice
	}
	if p.MaxPrice != nil {
		if *p.MaxPrice < f.minPrice {
			return nil, fmt.Errorf("%w: max_price is below min_price", ErrInvalidSearch)
		}
		f.maxPrice = p.MaxPrice
	}
	if p.Bedrooms != nil {
		if *p.Bedrooms < 0 {
			return nil, fmt.Errorf("%w: bedrooms must not be negative", ErrInvalidSearch)
		}
		f.bedrooms = *p.Bedrooms
	}

	switch {
	case p.Lat != nil && p.Lng != nil:
		ref := api.Coordinates{Lat: *p.Lat, Lng: *p.Lng}
		if !ref.Valid() {
			return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidSearch)
		}
		f.reference = &ref
	case p.Lat != nil || p.Lng != nil:
		return nil, fmt.Errorf("%w: lat and lng must be given together", ErrInvalidSearch)
	case p.Near != nil && strings.TrimSpace(*p.Near) != "":
		if s.locations == nil {
			return nil, ErrUnknownLocation
		}
		loc, err := s.locations.Resolve(*p.Near)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, *p.Near)
		}
		ref := loc.Coordinates
		f.reference = &ref
	}

	if p.RadiusKm != nil {
		if *p.RadiusKm <= 0 {
			return nil, fmt.Errorf("%w: radius_km must be positive", ErrInvalidSearch)
		}
		if f.reference == nil {
			return nil, fmt.Errorf("%w: radius_km needs lat/lng or near", ErrInvalidSearch)
		}
		f.radiusKm = p.RadiusKm
	}

	f.sort = SortNewest
	if f.reference != nil {
		f.sort = SortDistance
	}
	if p.Sort != nil && *p.Sort != "" {
		switch *p.Sort {
		case SortNewest, SortPriceAsc, SortPriceDesc:
			f.sort = *p.Sort
		case SortDistance:
			// Without a reference point there is nothing to measure from.
			if f.reference != nil {
				f.sort = SortDistance
			}
		default:
			return nil, fmt.Errorf("%w: unknown sort %q", ErrInvalidSearch, *p.Sort)
		}
	}

	if p.Limit != nil {
		if *p.Limit < 1 {
			return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidSearch)
		}
		f.limit = *p.Limit
		if f.limit > MaxLimit {
			f.limit = MaxLimit
		}
	}
	if p.Offset != nil {
		if *p.Offset < 0 {
			return nil, fmt.Errorf("%w: offset must not be negative", ErrInvalidSearch)
		}
		f.offset = *p.Offset
	}

	return f, nil
}

func (f *filter) match(l *api.Listing) (hit, bool) {
	if l.Status != api.PropertyAvailable {
		return hit{}, false
	}
	if f.text != "" &&
		!strings.Contains(strings.ToLower(l.Title), f.text) &&
		!strings.Contains(strings.ToLower(l.Location), f.text) {
		return hit{}, false
	}
	if l.Price < f.minPrice {
		return hit{}, false
	}
	if f.maxPrice != nil && l.Price > *f.maxPrice {
		return hit{}, false
	}
	if l.Bedrooms < f.bedrooms {
		return hit{}, false
	}

	if f.radiusKm != nil && (l.Coordinates == nil || !geo.Within(*f.reference, *l.Coordinates, *f.radiusKm)) {
		return hit{}, false
	}

	h := hit{listing: l}
	if f.reference != nil && l.Coordinates != nil {
		h.km = geo.Distance(*f.reference, *l.Coordinates)
		d := geo.BucketKm(h.km)
		h.distance = &d
	}
	return h, true
}

func sortHits(hits []hit, order string) {
	newer := func(a, b hit) bool {
		return a.listing.CreatedAt.After(b.listing.CreatedAt)
	}

	var less func(i, j int) bool
	switch order {
	case SortPriceAsc:
		less = func(i, j int) bool {
			if hits[i].listing.Price != hits[j].listing.Price {
				return hits[i].listing.Price < hits[j].listing.Price
			}
			return newer(hits[i], hits[j])
		}
	case SortPriceDesc:
		less = func(i, j int) bool {
			if hits[i].listing.Price != hits[j].listing.Price {
				return hits[i].listing.Price > hits[j].listing.Price
			}
			return newer(hits[i], hits[j])
		}
	case SortDistance:
		less = func(i, j int) bool {
			a, b := hits[i].distance, hits[j].distance
			switch {
			case a == nil && b == nil:
				return newer(hits[i], hits[j])
			case a == nil:
				return false
			case b == nil:
				return true
			case hits[i].km != hits[j].km:
				return hits[i].km < hits[j].km
			}
			return newer(hits[i], hits[j])
		}
	default:
		less = func(i, j int) bool {
			return newer(hits[i], hits[j])
		}
	}

	sort.SliceStable(hits, less)
}

// IsBadRequest reports whether err is a caller error from Search.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrInvalidSearch) || errors.Is(err, ErrUnknownLocation)
}
