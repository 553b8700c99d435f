package address

import (
	"context"
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

var (
	ErrNotFound        = errors.New("address not found")
	ErrDefaultConflict = errors.New("default address changed concurrently")
)

type Repository interface {
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Address, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Address, error)
	Create(ctx context.Context, addr *Address) error
	Update(ctx context.Context, addr *Address) error
	SetDefault(ctx context.Context, customerID, id uuid.UUID) error
	Deactivate(ctx context.Context, customerID, id uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const addressColumns = `id, customer_id, recipient_name, phone, line, region_id, subregion_id, locality_id, branch_id, is_default, is_active, created_at, updated_at`

func scanAddress(row pgx.Row, a *Address) error {
	return row.Scan(
		&a.ID,
		&a.CustomerID,
		&a.RecipientName,
		&a.Phone,
		&a.Line,
		&a.RegionID,
		&a.SubregionID,
		&a.LocalityID,
		&a.BranchID,
		&a.IsDefault,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

func (r *postgresRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE customer_id = $1 AND is_active
		ORDER BY is_default DESC, created_at DESC
	`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query addresses for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	addresses := make([]Address, 0)
	for rows.Next() {
		var a Address
		if err := scanAddress(rows, &a); err != nil {
			return nil, fmt.Errorf("repository: failed to scan address for customer %s: %w", customerID, err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating addresses for customer %s: %w", customerID, err)
	}

	return addresses, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`

	var a Address
	err := scanAddress(r.db.QueryRow(ctx, query, id), &a)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select address %s: %w", id, err)
	}

	return &a, nil
}

func (r *postgresRepository) Create(ctx context.Context, addr *Address) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("address_id", addr.ID).Msg("repository: failed to rollback address creation")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	// First active address for a customer becomes the default.
	var activeCount int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM addresses WHERE customer_id = $1 AND is_active`, addr.CustomerID).Scan(&activeCount)
	if err != nil {
		return fmt.Errorf("repository: failed to count active addresses: %w", err)
	}
	if activeCount == 0 {
		addr.IsDefault = true
	} else if addr.IsDefault {
		_, err = tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE, updated_at = $1 WHERE customer_id = $2 AND is_default`,
			time.Now().UTC(), addr.CustomerID)
		if err != nil {
			return fmt.Errorf("repository: failed to clear previous default: %w", err)
		}
	}

	now := time.Now().UTC()
	addr.IsActive = true
	addr.CreatedAt = now
	addr.UpdatedAt = now

	_, err = tx.Exec(ctx, `
		INSERT INTO addresses (`+addressColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		addr.ID, addr.CustomerID, addr.RecipientName, addr.Phone, addr.Line,
		addr.RegionID, addr.SubregionID, addr.LocalityID, addr.BranchID,
		addr.IsDefault, addr.IsActive, addr.CreatedAt, addr.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDefaultConflict
		}
		return fmt.Errorf("repository: failed to insert address: %w", err)
	}

	return nil
}

func (r *postgresRepository) Update(ctx context.Context, addr *Address) error {
	query := `
		UPDATE addresses
		SET recipient_name = $1, phone = $2, line = $3, region_id = $4,
		    subregion_id = $5, locality_id = $6, branch_id = $7, updated_at = $8
		WHERE id = $9 AND customer_id = $10 AND is_active
	`

	cmdTag, err := r.db.Exec(ctx, query,
		addr.RecipientName, addr.Phone, addr.Line, addr.RegionID,
		addr.SubregionID, addr.LocalityID, addr.BranchID, time.Now().UTC(),
		addr.ID, addr.CustomerID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update address %s: %w", addr.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetDefault swaps the customer's default address in one transaction: clear
// the previous default, set the new one. Readers never observe zero or two
// defaults; the partial unique index backs this up at the database level.
func (r *postgresRepository) SetDefault(ctx context.Context, customerID, id uuid.UUID) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("address_id", id).Msg("repository: failed to rollback default swap")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	now := time.Now().UTC()

	_, err = tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE, updated_at = $1 WHERE customer_id = $2 AND is_default AND id <> $3`,
		now, customerID, id)
	if err != nil {
		return fmt.Errorf("repository: failed to clear previous default: %w", err)
	}

	cmdTag, err := tx.Exec(ctx, `UPDATE addresses SET is_default = TRUE, updated_at = $1 WHERE id = $2 AND customer_id = $3 AND is_active`,
		now, id, customerID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDefaultConflict
		}
		return fmt.Errorf("repository: failed to set default address %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresRepository) Deactivate(ctx context.Context, customerID, id uuid.UUID) error {
	query := `
		UPDATE addresses
		SET is_active = FALSE, is_default = FALSE, updated_at = $1
		WHERE id = $2 AND customer_id = $3 AND is_active
	`

	cmdTag, err := r.db.Exec(ctx, query, time.Now().UTC(), id, customerID)
	if err != nil {
		return fmt.Errorf("repository: failed to deactivate address %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
