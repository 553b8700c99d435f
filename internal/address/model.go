package address

import (
	"time"

	"github.com/gofrs/uuid"
)

// Address is a customer's saved delivery address. Addresses are never hard
// deleted: orders reference them historically, so removal is a soft
// deactivation.
type Address struct {
	ID            uuid.UUID `json:"id" db:"id"`
	CustomerID    uuid.UUID `json:"customer_id" db:"customer_id"`
	RecipientName string    `json:"recipient_name" db:"recipient_name"`
	Phone         string    `json:"phone" db:"phone"`
	Line          string    `json:"line" db:"line"`
	RegionID      string    `json:"region_id" db:"region_id"`
	SubregionID   string    `json:"subregion_id" db:"subregion_id"`
	LocalityID    string    `json:"locality_id" db:"locality_id"`
	BranchID      string    `json:"branch_id,omitempty" db:"branch_id"`
	IsDefault     bool      `json:"is_default" db:"is_default"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// View decorates an address with display names resolved from the location
// directory.
type View struct {
	Address
	RegionName    string `json:"region_name,omitempty"`
	SubregionName string `json:"subregion_name,omitempty"`
	LocalityName  string `json:"locality_name,omitempty"`
}
