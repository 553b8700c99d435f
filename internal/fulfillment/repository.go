package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	Create(ctx context.Context, ord *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// UpdateStatusFrom applies the transition only when the order is still in
	// the expected status. It reports whether the row was updated, which is
	// the single compare-and-set every idempotency guarantee hangs on.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to Status) (bool, error)
	// CreateShipment records the courier shipment and moves the order to
	// SHIPMENT_CREATED in one transaction, guarded by the expected status.
	CreateShipment(ctx context.Context, orderID uuid.UUID, from Status, shipment *ShipmentOrder) (bool, error)
	// RecordShipmentFailure moves a PAID order to SHIPMENT_FAILED keeping the
	// raw courier error for operator resolution.
	RecordShipmentFailure(ctx context.Context, orderID uuid.UUID, courierErr string) (bool, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, ord *Order) (err error) {
	addressJSON, err := json.Marshal(ord.AddressSnapshot)
	if err != nil {
		return fmt.Errorf("repository: failed to marshal address snapshot: %w", err)
	}
	quoteJSON, err := json.Marshal(ord.FeeQuote)
	if err != nil {
		return fmt.Errorf("repository: failed to marshal fee quote: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", ord.ID).Msg("repository: failed to rollback order creation")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	now := time.Now().UTC()
	ord.CreatedAt = now
	ord.UpdatedAt = now

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, customer_id, customer_name, customer_phone, address_id,
			address_snapshot, fee_quote, payment_method, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		ord.ID, ord.CustomerID, ord.CustomerName, ord.CustomerPhone, ord.AddressID,
		addressJSON, quoteJSON, ord.PaymentMethod, ord.TotalAmount, string(ord.Status),
		ord.CreatedAt, ord.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	for i := range ord.Items {
		item := &ord.Items[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order item id: %w", genErr)
		}
		item.ID = itemID
		item.OrderID = ord.ID
		item.CreatedAt = now

		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, item_id, item_type, name, unit_price, quantity, weight_grams, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID, item.OrderID, item.ItemID, string(item.ItemType), item.Name,
			item.UnitPrice, item.Quantity, item.WeightGrams, item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", ord.ID, err)
		}
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `
		SELECT id, customer_id, customer_name, customer_phone, address_id,
		       address_snapshot, fee_quote, payment_method, total_amount, status,
		       shipment_error, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var ord Order
	var addressJSON, quoteJSON []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&ord.ID,
		&ord.CustomerID,
		&ord.CustomerName,
		&ord.CustomerPhone,
		&ord.AddressID,
		&addressJSON,
		&quoteJSON,
		&ord.PaymentMethod,
		&ord.TotalAmount,
		&ord.Status,
		&ord.ShipmentError,
		&ord.CreatedAt,
		&ord.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %s: %w", id, err)
	}

	if err := json.Unmarshal(addressJSON, &ord.AddressSnapshot); err != nil {
		return nil, fmt.Errorf("repository: failed to unmarshal address snapshot for order %s: %w", id, err)
	}
	if err := json.Unmarshal(quoteJSON, &ord.FeeQuote); err != nil {
		return nil, fmt.Errorf("repository: failed to unmarshal fee quote for order %s: %w", id, err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, item_id, item_type, name, unit_price, quantity, weight_grams, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order %s: %w", id, err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ItemID,
			&item.ItemType,
			&item.Name,
			&item.UnitPrice,
			&item.Quantity,
			&item.WeightGrams,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order %s: %w", id, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order %s: %w", id, err)
	}
	ord.Items = items

	var shipment ShipmentOrder
	err = r.db.QueryRow(ctx, `SELECT order_id, tracking_code, courier_status, created_at FROM shipments WHERE order_id = $1`, id).
		Scan(&shipment.OrderID, &shipment.TrackingCode, &shipment.CourierStatus, &shipment.CreatedAt)
	if err == nil {
		ord.Shipment = &shipment
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("repository: failed to select shipment for order %s: %w", id, err)
	}

	return &ord, nil
}

func (r *postgresRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to Status) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	cmdTag, err := r.db.Exec(ctx, query, string(to), time.Now().UTC(), id, string(from))
	if err != nil {
		return false, fmt.Errorf("repository: failed to update order %s status: %w", id, err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

func (r *postgresRepository) CreateShipment(ctx context.Context, orderID uuid.UUID, from Status, shipment *ShipmentOrder) (applied bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil || !applied {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("repository: failed to rollback shipment creation")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			applied = false
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	cmdTag, err := tx.Exec(ctx, `
		UPDATE orders SET status = $1, shipment_error = NULL, updated_at = $2
		WHERE id = $3 AND status = $4`,
		string(StatusShipmentCreated), time.Now().UTC(), orderID, string(from))
	if err != nil {
		return false, fmt.Errorf("repository: failed to move order %s to shipment created: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return false, nil
	}

	shipment.OrderID = orderID
	shipment.CreatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx, `
		INSERT INTO shipments (order_id, tracking_code, courier_status, created_at)
		VALUES ($1, $2, $3, $4)`,
		shipment.OrderID, shipment.TrackingCode, shipment.CourierStatus, shipment.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// A shipment row already exists for this order; nothing to redo.
			return false, nil
		}
		return false, fmt.Errorf("repository: failed to insert shipment for order %s: %w", orderID, err)
	}

	return true, nil
}

func (r *postgresRepository) RecordShipmentFailure(ctx context.Context, orderID uuid.UUID, courierErr string) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1, shipment_error = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	cmdTag, err := r.db.Exec(ctx, query,
		string(StatusShipmentFailed), courierErr, time.Now().UTC(), orderID, string(StatusPaid))
	if err != nil {
		return false, fmt.Errorf("repository: failed to record shipment failure for order %s: %w", orderID, err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
