package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/minhtran-dev/fulfillment-service/internal/address"
	"github.com/minhtran-dev/fulfillment-service/internal/courier"
	"github.com/minhtran-dev/fulfillment-service/internal/payment"
	"github.com/minhtran-dev/fulfillment-service/internal/shipping"
)

var allowedTransitions = map[Status]map[Status]bool{
	StatusCreated: {
		StatusAwaitingPayment: true,
		StatusCancelled:       true,
	},
	StatusAwaitingPayment: {
		StatusPaid:          true,
		StatusPaymentFailed: true,
		StatusCancelled:     true,
	},
	StatusPaid: {
		StatusShipmentCreated: true,
		StatusShipmentFailed:  true,
	},
	StatusShipmentFailed: {
		// Operator reconciliation only; there is no automatic retry.
		StatusShipmentCreated: true,
	},
	StatusShipmentCreated: {},
	StatusPaymentFailed:   {},
	StatusCancelled:       {},
}

var (
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrAddressResolution = errors.New("delivery address is not active or cannot be resolved")
	ErrFeeQuoteStale     = errors.New("fee quote does not match the selected address")
	ErrPaymentInitiation = errors.New("payment session could not be created")
	ErrOrderNotPending   = errors.New("order is not awaiting payment")
	ErrCancelNotAllowed  = errors.New("order can no longer be cancelled")
	ErrShipmentNotFailed = errors.New("order has no failed shipment to resolve")
)

type CreateOrderInput struct {
	CustomerID    uuid.UUID
	CustomerName  string
	CustomerPhone string
	AddressID     uuid.UUID
	Items         []OrderItem
	FeeQuote      FeeQuoteSnapshot
	PaymentMethod string
}

// FeeQuoteSnapshot is what CreateOrderInput carries; it is stored frozen on
// the order.
type FeeQuoteSnapshot = shipping.FeeQuote

type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error)
	InitiatePayment(ctx context.Context, orderID uuid.UUID) (redirectURL string, err error)
	HandlePaymentCallback(ctx context.Context, result payment.Result) (*Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
	ResolveShipment(ctx context.Context, orderID uuid.UUID, trackingCode string) (*Order, error)
}

type service struct {
	repo      Repository
	addresses address.Service
	gateway   payment.Gateway
	courier   courier.Client
	pickup    courier.Pickup
	returnURL string
}

func NewService(repo Repository, addresses address.Service, gateway payment.Gateway, courierClient courier.Client, pickup courier.Pickup, returnURL string) Service {
	return &service{
		repo:      repo,
		addresses: addresses,
		gateway:   gateway,
		courier:   courierClient,
		pickup:    pickup,
		returnURL: returnURL,
	}
}

// transition applies a status change through the repository's compare-and-set
// after checking it against allowedTransitions. Every status CAS in the
// service goes through here so the table stays the single source of truth.
func (s *service) transition(ctx context.Context, orderID uuid.UUID, from, to Status) (bool, error) {
	if !CanTransition(from, to) {
		return false, fmt.Errorf("service: transition %s -> %s is not allowed", from, to)
	}
	return s.repo.UpdateStatusFrom(ctx, orderID, from, to)
}

// recordShipment is the table-checked path to SHIPMENT_CREATED, shared by the
// post-payment attempt and operator resolution.
func (s *service) recordShipment(ctx context.Context, orderID uuid.UUID, from Status, shipment *ShipmentOrder) (bool, error) {
	if !CanTransition(from, StatusShipmentCreated) {
		return false, fmt.Errorf("service: transition %s -> %s is not allowed", from, StatusShipmentCreated)
	}
	return s.repo.CreateShipment(ctx, orderID, from, shipment)
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if len(input.Items) == 0 {
		log.Warn().Stringer("customer_id", input.CustomerID).Msg("service: attempt to create order with no items")
		return nil, ErrEmptyOrder
	}

	var itemsTotal int64
	for i := range input.Items {
		item := &input.Items[i]
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("service: quantity for item %s must be greater than zero", item.ItemID)
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("service: unit price for item %s cannot be negative", item.ItemID)
		}
		if item.ItemType != ItemTypeDish && item.ItemType != ItemTypeCombo {
			return nil, fmt.Errorf("service: unknown item type %q for item %s", item.ItemType, item.ItemID)
		}
		itemsTotal += int64(item.Quantity) * item.UnitPrice
	}

	addr, err := s.addresses.GetActive(ctx, input.AddressID)
	if err != nil {
		if errors.Is(err, address.ErrNotFound) {
			return nil, ErrAddressResolution
		}
		return nil, fmt.Errorf("service: failed to load delivery address: %w", err)
	}

	// The quote must have been computed for this exact address; a stale one
	// must never silently reprice the order.
	if input.FeeQuote.DestinationLocalityID != addr.LocalityID {
		return nil, ErrFeeQuoteStale
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate order id: %w", err)
	}

	ord := &Order{
		ID:              id,
		CustomerID:      input.CustomerID,
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		AddressID:       addr.ID,
		AddressSnapshot: *addr,
		FeeQuote:        input.FeeQuote,
		PaymentMethod:   input.PaymentMethod,
		TotalAmount:     itemsTotal + input.FeeQuote.TotalFee,
		Status:          StatusCreated,
		Items:           input.Items,
	}

	if err := s.repo.Create(ctx, ord); err != nil {
		log.Error().Err(err).Stringer("customer_id", input.CustomerID).Msg("service: failed to persist order")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", ord.ID).Stringer("customer_id", ord.CustomerID).Int64("total_amount", ord.TotalAmount).Msg("service: order created")
	return ord, nil
}

func (s *service) InitiatePayment(ctx context.Context, orderID uuid.UUID) (string, error) {
	ord, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}

	// Re-initiation from AWAITING_PAYMENT is allowed: the customer may have
	// lost the redirect. Anything later is not.
	if ord.Status != StatusCreated && ord.Status != StatusAwaitingPayment {
		return "", fmt.Errorf("service: cannot initiate payment for order in status %s", ord.Status)
	}

	redirectURL, err := s.gateway.CreateSession(ctx, ord.ID.String(), ord.TotalAmount, s.returnURL)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: payment session creation failed")
		return "", fmt.Errorf("%w: %v", ErrPaymentInitiation, err)
	}

	if ord.Status == StatusCreated {
		applied, err := s.transition(ctx, orderID, StatusCreated, StatusAwaitingPayment)
		if err != nil {
			return "", fmt.Errorf("service: failed to mark order awaiting payment: %w", err)
		}
		if !applied {
			// Lost a race; whatever state the order is in now decides.
			current, err := s.repo.GetByID(ctx, orderID)
			if err != nil {
				return "", err
			}
			if current.Status != StatusAwaitingPayment {
				return "", fmt.Errorf("service: cannot initiate payment for order in status %s", current.Status)
			}
		}
	}

	log.Info().Stringer("order_id", orderID).Msg("service: payment initiated")
	return redirectURL, nil
}

// HandlePaymentCallback consumes the gateway's outcome notification. Delivery
// is at-least-once (browser redirect plus retried webhooks), so the PAID
// transition and the shipment attempt it triggers are guarded by a single
// compare-and-set on the order status: the first callback wins, duplicates
// observe the already-final order and change nothing.
func (s *service) HandlePaymentCallback(ctx context.Context, result payment.Result) (*Order, error) {
	orderID, err := uuid.FromString(result.OrderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	if _, err := s.repo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}

	if !result.Succeeded() {
		return s.applyPaymentFailure(ctx, orderID, result)
	}

	applied, err := s.transition(ctx, orderID, StatusAwaitingPayment, StatusPaid)
	if err != nil {
		return nil, fmt.Errorf("service: failed to apply paid transition: %w", err)
	}
	if !applied {
		current, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		switch current.Status {
		case StatusPaid, StatusShipmentCreated, StatusShipmentFailed:
			// Duplicate callback: absorbed, no second shipment attempt.
			log.Info().Stringer("order_id", orderID).Stringer("status", current.Status).Msg("service: duplicate payment callback absorbed")
			return current, nil
		default:
			log.Warn().Stringer("order_id", orderID).Stringer("status", current.Status).Msg("service: payment callback for order that is not awaiting payment")
			return nil, ErrOrderNotPending
		}
	}

	log.Info().Stringer("order_id", orderID).Str("result_code", result.ResultCode).Msg("service: payment confirmed")

	return s.createShipment(ctx, orderID)
}

func (s *service) applyPaymentFailure(ctx context.Context, orderID uuid.UUID, result payment.Result) (*Order, error) {
	applied, err := s.transition(ctx, orderID, StatusAwaitingPayment, StatusPaymentFailed)
	if err != nil {
		return nil, fmt.Errorf("service: failed to apply payment failure: %w", err)
	}

	current, getErr := s.repo.GetByID(ctx, orderID)
	if getErr != nil {
		return nil, getErr
	}

	if applied {
		log.Warn().Stringer("order_id", orderID).Str("result_code", result.ResultCode).Msg("service: payment declined by gateway")
		return current, nil
	}

	switch current.Status {
	case StatusPaymentFailed, StatusPaid, StatusShipmentCreated, StatusShipmentFailed:
		log.Info().Stringer("order_id", orderID).Stringer("status", current.Status).Msg("service: duplicate payment callback absorbed")
		return current, nil
	default:
		return nil, ErrOrderNotPending
	}
}

// createShipment runs exactly once per order, immediately after the winning
// PAID transition. Courier order creation is not idempotent across all of
// its failure modes, so a failure is recorded for operator resolution instead
// of retried; payment is never reversed here.
func (s *service) createShipment(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	ord, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	req := courier.CreateShipmentRequest{
		Pickup: s.pickup,
		Dropoff: courier.Dropoff{
			RecipientName: ord.AddressSnapshot.RecipientName,
			Phone:         ord.AddressSnapshot.Phone,
			Line:          ord.AddressSnapshot.Line,
			RegionID:      ord.AddressSnapshot.RegionID,
			SubregionID:   ord.AddressSnapshot.SubregionID,
			LocalityID:    ord.AddressSnapshot.LocalityID,
		},
		// Paid through the gateway already, so nothing to collect.
		CODAmount: 0,
	}
	for _, item := range ord.Items {
		req.Items = append(req.Items, courier.LineItem{
			Name:        item.Name,
			Quantity:    item.Quantity,
			WeightGrams: item.WeightGrams * item.Quantity,
			Value:       item.UnitPrice * int64(item.Quantity),
		})
	}

	created, err := s.courier.CreateShipment(ctx, req)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: shipment creation failed after successful payment")
		if _, recErr := s.repo.RecordShipmentFailure(ctx, orderID, err.Error()); recErr != nil {
			return nil, fmt.Errorf("service: failed to record shipment failure: %w", recErr)
		}
		return s.repo.GetByID(ctx, orderID)
	}

	applied, err := s.recordShipment(ctx, orderID, StatusPaid, &ShipmentOrder{
		TrackingCode:  created.TrackingCode,
		CourierStatus: created.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to persist shipment: %w", err)
	}
	if !applied {
		log.Warn().Stringer("order_id", orderID).Str("tracking_code", created.TrackingCode).Msg("service: shipment already recorded for order")
	} else {
		log.Info().Stringer("order_id", orderID).Str("tracking_code", created.TrackingCode).Msg("service: shipment created")
	}

	return s.repo.GetByID(ctx, orderID)
}

// Cancel is a cooperative state check, not a preemption: a cancel racing a
// gateway callback loses when the callback's transition commits first.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	for _, from := range []Status{StatusCreated, StatusAwaitingPayment} {
		applied, err := s.transition(ctx, orderID, from, StatusCancelled)
		if err != nil {
			return nil, fmt.Errorf("service: failed to cancel order: %w", err)
		}
		if applied {
			log.Info().Stringer("order_id", orderID).Stringer("old_status", from).Msg("service: order cancelled")
			return s.repo.GetByID(ctx, orderID)
		}
	}

	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusCancelled {
		return current, nil
	}

	log.Warn().Stringer("order_id", orderID).Stringer("status", current.Status).Msg("service: cancel rejected")
	return nil, fmt.Errorf("%w: order is %s", ErrCancelNotAllowed, current.Status)
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// ResolveShipment is the out-of-band operator action that closes a
// SHIPMENT_FAILED order once the shipment has been sorted out with the
// courier manually.
func (s *service) ResolveShipment(ctx context.Context, orderID uuid.UUID, trackingCode string) (*Order, error) {
	if trackingCode == "" {
		return nil, fmt.Errorf("service: tracking code is required to resolve a shipment")
	}

	if _, err := s.repo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}

	applied, err := s.recordShipment(ctx, orderID, StatusShipmentFailed, &ShipmentOrder{
		TrackingCode:  trackingCode,
		CourierStatus: "CREATED",
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to resolve shipment: %w", err)
	}
	if !applied {
		return nil, ErrShipmentNotFailed
	}

	log.Info().Stringer("order_id", orderID).Str("tracking_code", trackingCode).Msg("service: failed shipment resolved by operator")
	return s.repo.GetByID(ctx, orderID)
}

// CanTransition reports whether the state machine allows moving from one
// status to another.
func CanTransition(from, to Status) bool {
	next, ok := allowedTransitions[from]
	return ok && next[to]
}
