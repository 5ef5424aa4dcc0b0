// Package api holds the JSON contract of the House Hunt service: wire types,
// the embedded OpenAPI document and the route binding.
package api

import "time"

// Role of an account.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleAdmin    Role = "admin"
)

// PropertyStatus is the availability of a listing.
type PropertyStatus string

const (
	PropertyAvailable   PropertyStatus = "available"
	PropertyRented      PropertyStatus = "rented"
	PropertyMaintenance PropertyStatus = "maintenance"
)

// PaymentStatus of an STK push attempt.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentTimeout   PaymentStatus = "timeout"
)

// PaymentType tells what a payment pays for.
type PaymentType string

const (
	PaymentPropertyUnlock      PaymentType = "property_unlock"
	PaymentListingSubscription PaymentType = "listing_subscription"
)

// MessageStatus of a contact message.
type MessageStatus string

const (
	MessageUnread  MessageStatus = "unread"
	MessageRead    MessageStatus = "read"
	MessageReplied MessageStatus = "replied"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether c is a point on the globe.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

type PropertyImage struct {
	Id          string    `json:"id"`
	PropertyId  string    `json:"property_id"`
	ImageUrl    string    `json:"image_url"`
	IsPrimary   bool      `json:"is_primary"`
	BlobId      string    `json:"-"`
	ContentType string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Listing is the full stored record of a property. It is never written to
// anonymous clients as-is; see Property and PropertyDetails.
type Listing struct {
	Id               string          `json:"id"`
	LandlordId       string          `json:"landlord_id"`
	Title            string          `json:"title"`
	Location         string          `json:"location"`
	Price            float64         `json:"price"`
	Period           string          `json:"period"`
	Bedrooms         int             `json:"bedrooms"`
	Bathrooms        int             `json:"bathrooms"`
	Area             string          `json:"area"`
	Description      string          `json:"description"`
	Features         []string        `json:"features"`
	Coordinates      *Coordinates    `json:"coordinates"`
	Status           PropertyStatus  `json:"status"`
	RemainingUnits   int             `json:"remaining_units"`
	TotalUnits       int             `json:"total_units"`
	ListingPaymentId *string         `json:"listing_payment_id,omitempty"`
	Images           []PropertyImage `json:"images"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Property is the public view of a listing: no coordinates, no landlord contact.
type Property struct {
	Id             string          `json:"id"`
	Title          string          `json:"title"`
	Location       string          `json:"location"`
	Price          float64         `json:"price"`
	DisplayPrice   string          `json:"display_price"`
	Period         string          `json:"period"`
	Bedrooms       int             `json:"bedrooms"`
	Bathrooms      int             `json:"bathrooms"`
	Area           string          `json:"area"`
	Description    string          `json:"description"`
	Features       []string        `json:"features"`
	Image          string          `json:"image"`
	Images         []PropertyImage `json:"images"`
	HasCoordinates bool            `json:"has_coordinates"`
	DistanceKm     *float64        `json:"distance_km,omitempty"`
	RemainingUnits int             `json:"remaining_units"`
	TotalUnits     int             `json:"total_units"`
	Status         PropertyStatus  `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PropertyDetails is what an unlock reveals.
type PropertyDetails struct {
	PropertyId    string       `json:"property_id"`
	Title         string       `json:"title"`
	Location      string       `json:"location"`
	Coordinates   *Coordinates `json:"coordinates"`
	DirectionsUrl string       `json:"directions_url,omitempty"`
	LandlordName  string       `json:"landlord_name"`
	LandlordPhone string       `json:"landlord_phone"`
	LandlordEmail string       `json:"landlord_email"`
}

// PropertyInput is the landlord-supplied body for create and update.
type PropertyInput struct {
	Title          string         `json:"title"`
	Location       string         `json:"location"`
	Price          float64        `json:"price"`
	Period         string         `json:"period"`
	Bedrooms       int            `json:"bedrooms"`
	Bathrooms      int            `json:"bathrooms"`
	Area           string         `json:"area"`
	Description    string         `json:"description"`
	Features       []string       `json:"features"`
	Coordinates    *Coordinates   `json:"coordinates"`
	Status         PropertyStatus `json:"status"`
	RemainingUnits int            `json:"remaining_units"`
	TotalUnits     int            `json:"total_units"`
}

type SearchPropertiesParams struct {
	Q        *string  `json:"q,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	Bedrooms *int     `json:"bedrooms,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
	Near     *string  `json:"near,omitempty"`
	RadiusKm *float64 `json:"radius_km,omitempty"`
	Sort     *string  `json:"sort,omitempty"`
	Limit    *int     `json:"limit,omitempty"`
	Offset   *int     `json:"offset,omitempty"`
}

type SearchLocationsParams struct {
	Q *string `json:"q,omitempty"`
}

type PropertyList struct {
	Items     []Property   `json:"items"`
	Total     int          `json:"total"`
	Reference *Coordinates `json:"reference,omitempty"`
}

type Payment struct {
	Id                 string        `json:"id"`
	UserId             *string       `json:"user_id,omitempty"`
	PaymentType        PaymentType   `json:"payment_type"`
	ReferenceId        *string       `json:"reference_id,omitempty"`
	Amount             *float64      `json:"amount,omitempty"`
	PhoneNumber        *string       `json:"phone_number,omitempty"`
	CheckoutRequestId  *string       `json:"-"`
	MerchantRequestId  *string       `json:"-"`
	MpesaReceiptNumber *string       `json:"mpesa_receipt_number,omitempty"`
	ResultCode         *int          `json:"result_code,omitempty"`
	ResultDesc         *string       `json:"result_desc,omitempty"`
	TransactionDate    *string       `json:"transaction_date,omitempty"`
	Status             PaymentStatus `json:"status"`
	AlreadyUnlocked    bool          `json:"already_unlocked,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type PaymentRequest struct {
	Phone string `json:"phone"`
}

type Profile struct {
	Id           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     Role   `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Profile   Profile   `json:"profile"`
}

type ContactMessage struct {
	Id         string        `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Message    string        `json:"message"`
	Status     MessageStatus `json:"status"`
	AdminReply *string       `json:"admin_reply"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type ReplyRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type RecentProperty struct {
	Title     string    `json:"title" db:"title"`
	Location  string    `json:"location" db:"location"`
	Price     float64   `json:"price" db:"price"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type DashboardStats struct {
	TotalProperties   int              `json:"total_properties"`
	TotalRevenue      string           `json:"total_revenue"`
	TotalTransactions int              `json:"total_transactions"`
	Landlords         int              `json:"landlords"`
	Tenants           int              `json:"tenants"`
	RecentProperties  []RecentProperty `json:"recent_properties"`
}

type Location struct {
	Name         string      `json:"name"`
	Constituency string      `json:"constituency,omitempty"`
	Kind         string      `json:"kind"`
	Coordinates  Coordinates `json:"coordinates"`
}

// CallbackAck is the only body the Daraja webhook ever answers with.
type CallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}
