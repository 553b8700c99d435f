package fulfillment

import (
	"time"

	"github.com/gofrs/uuid"

	"github.com/minhtran-dev/fulfillment-service/internal/address"
	"github.com/minhtran-dev/fulfillment-service/internal/shipping"
)

type Status string

const (
	StatusCreated         Status = "CREATED"
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusPaid            Status = "PAID"
	StatusShipmentCreated Status = "SHIPMENT_CREATED"
	StatusPaymentFailed   Status = "PAYMENT_FAILED"
	StatusShipmentFailed  Status = "SHIPMENT_FAILED"
	StatusCancelled       Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

type ItemType string

const (
	ItemTypeDish  ItemType = "DISH"
	ItemTypeCombo ItemType = "COMBO"
)

type OrderItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OrderID     uuid.UUID `json:"order_id" db:"order_id"`
	ItemID      string    `json:"item_id" db:"item_id"`
	ItemType    ItemType  `json:"item_type" db:"item_type"`
	Name        string    `json:"name" db:"name"`
	UnitPrice   int64     `json:"unit_price" db:"unit_price"`
	Quantity    int       `json:"quantity" db:"quantity"`
	WeightGrams int       `json:"weight_grams" db:"weight_grams"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ShipmentOrder is the courier-side record, present only once shipment
// creation has succeeded.
type ShipmentOrder struct {
	OrderID       uuid.UUID `json:"order_id" db:"order_id"`
	TrackingCode  string    `json:"tracking_code" db:"tracking_code"`
	CourierStatus string    `json:"courier_status" db:"courier_status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Order carries a frozen copy of the address and fee quote used at checkout
// time; later address edits or fee-policy changes never alter a placed order.
type Order struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	CustomerID      uuid.UUID         `json:"customer_id" db:"customer_id"`
	CustomerName    string            `json:"customer_name" db:"customer_name"`
	CustomerPhone   string            `json:"customer_phone" db:"customer_phone"`
	AddressID       uuid.UUID         `json:"address_id" db:"address_id"`
	AddressSnapshot address.Address   `json:"address_snapshot" db:"address_snapshot"`
	FeeQuote        shipping.FeeQuote `json:"fee_quote" db:"fee_quote"`
	PaymentMethod   string            `json:"payment_method" db:"payment_method"`
	TotalAmount     int64             `json:"total_amount" db:"total_amount"`
	Status          Status            `json:"status" db:"status"`
	Items           []OrderItem       `json:"items" db:"-"`
	Shipment        *ShipmentOrder    `json:"shipment,omitempty" db:"-"`
	ShipmentError   *string           `json:"shipment_error,omitempty" db:"shipment_error"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}
