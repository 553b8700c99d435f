package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/minhtran-dev/fulfillment-service/internal/location"
)

type Service interface {
	List(ctx context.Context, customerID uuid.UUID) ([]View, error)
	Create(ctx context.Context, addr *Address) (*Address, error)
	Update(ctx context.Context, addr *Address) error
	SetDefault(ctx context.Context, customerID, id uuid.UUID) error
	Deactivate(ctx context.Context, customerID, id uuid.UUID) error
	GetActive(ctx context.Context, id uuid.UUID) (*Address, error)
}

type service struct {
	repo      Repository
	directory *location.Directory
}

func NewService(repo Repository, directory *location.Directory) Service {
	return &service{repo: repo, directory: directory}
}

func (s *service) List(ctx context.Context, customerID uuid.UUID) ([]View, error) {
	addresses, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		log.Error().Err(err).Stringer("customer_id", customerID).Msg("service: failed to list addresses")
		return nil, fmt.Errorf("service: failed to list addresses: %w", err)
	}

	views := make([]View, 0, len(addresses))
	for _, a := range addresses {
		views = append(views, View{
			Address:       a,
			RegionName:    s.directory.NodeName(ctx, "", a.RegionID),
			SubregionName: s.directory.NodeName(ctx, a.RegionID, a.SubregionID),
			LocalityName:  s.directory.NodeName(ctx, a.SubregionID, a.LocalityID),
		})
	}

	return views, nil
}

func (s *service) Create(ctx context.Context, addr *Address) (*Address, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate address id: %w", err)
	}
	addr.ID = id

	if err := s.repo.Create(ctx, addr); err != nil {
		log.Error().Err(err).Stringer("customer_id", addr.CustomerID).Msg("service: failed to create address")
		return nil, fmt.Errorf("service: failed to create address: %w", err)
	}

	log.Info().Stringer("address_id", addr.ID).Stringer("customer_id", addr.CustomerID).Msg("service: address created")
	return addr, nil
}

func (s *service) Update(ctx context.Context, addr *Address) error {
	err := s.repo.Update(ctx, addr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("address_id", addr.ID).Msg("service: failed to update address")
		return fmt.Errorf("service: failed to update address: %w", err)
	}

	return nil
}

func (s *service) SetDefault(ctx context.Context, customerID, id uuid.UUID) error {
	err := s.repo.SetDefault(ctx, customerID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("address_id", id).Msg("service: failed to set default address")
		return fmt.Errorf("service: failed to set default address: %w", err)
	}

	log.Info().Stringer("address_id", id).Stringer("customer_id", customerID).Msg("service: default address changed")
	return nil
}

func (s *service) Deactivate(ctx context.Context, customerID, id uuid.UUID) error {
	err := s.repo.Deactivate(ctx, customerID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("address_id", id).Msg("service: failed to deactivate address")
		return fmt.Errorf("service: failed to deactivate address: %w", err)
	}

	return nil
}

// GetActive returns the address only when it is still active. The
// fulfillment coordinator uses it to refuse checkouts against deactivated
// addresses.
func (s *service) GetActive(ctx context.Context, id uuid.UUID) (*Address, error) {
	addr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to get address: %w", err)
	}
	if !addr.IsActive {
		return nil, ErrNotFound
	}

	return addr, nil
}
