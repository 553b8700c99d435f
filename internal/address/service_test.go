package address_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhtran-dev/fulfillment-service/internal/address"
	"github.com/minhtran-dev/fulfillment-service/internal/location"
)

type mockRepository struct {
	listByCustomerFunc func(ctx context.Context, customerID uuid.UUID) ([]address.Address, error)
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*address.Address, error)
	createFunc         func(ctx context.Context, addr *address.Address) error
	updateFunc         func(ctx context.Context, addr *address.Address) error
	setDefaultFunc     func(ctx context.Context, customerID, id uuid.UUID) error
	deactivateFunc     func(ctx context.Context, customerID, id uuid.UUID) error
}

func (m *mockRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]address.Address, error) {
	return m.listByCustomerFunc(ctx, customerID)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*address.Address, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockRepository) Create(ctx context.Context, addr *address.Address) error {
	return m.createFunc(ctx, addr)
}

func (m *mockRepository) Update(ctx context.Context, addr *address.Address) error {
	return m.updateFunc(ctx, addr)
}

func (m *mockRepository) SetDefault(ctx context.Context, customerID, id uuid.UUID) error {
	return m.setDefaultFunc(ctx, customerID, id)
}

func (m *mockRepository) Deactivate(ctx context.Context, customerID, id uuid.UUID) error {
	return m.deactivateFunc(ctx, customerID, id)
}

// failingSource forces the directory onto its static dataset so name
// resolution in tests needs no remote calls.
type failingSource struct{}

func (failingSource) ListChildren(ctx context.Context, parentID string) ([]location.Node, error) {
	return nil, errors.New("source unavailable")
}

func testDirectory() *location.Directory {
	return location.NewDirectory(location.NewFallbackSource(failingSource{}))
}

func TestService_List(t *testing.T) {
	customerID := uuid.Must(uuid.NewV4())

	t.Run("decorates_with_location_names", func(t *testing.T) {
		repo := &mockRepository{
			listByCustomerFunc: func(ctx context.Context, id uuid.UUID) ([]address.Address, error) {
				assert.Equal(t, customerID, id)
				return []address.Address{
					{
						CustomerID:  customerID,
						RegionID:    "01",
						SubregionID: "002",
						LocalityID:  "00037",
						IsDefault:   true,
						IsActive:    true,
					},
				}, nil
			},
		}
		svc := address.NewService(repo, testDirectory())

		views, err := svc.List(context.Background(), customerID)

		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "Hà Nội", views[0].RegionName)
		assert.Equal(t, "Hoàn Kiếm", views[0].SubregionName)
		assert.Equal(t, "Hàng Bạc", views[0].LocalityName)
	})

	t.Run("unknown_locality_keeps_empty_names", func(t *testing.T) {
		repo := &mockRepository{
			listByCustomerFunc: func(ctx context.Context, id uuid.UUID) ([]address.Address, error) {
				return []address.Address{{RegionID: "01", SubregionID: "999", LocalityID: "99999"}}, nil
			},
		}
		svc := address.NewService(repo, testDirectory())

		views, err := svc.List(context.Background(), customerID)

		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "Hà Nội", views[0].RegionName)
		assert.Empty(t, views[0].LocalityName)
	})

	t.Run("repository_error", func(t *testing.T) {
		repo := &mockRepository{
			listByCustomerFunc: func(ctx context.Context, id uuid.UUID) ([]address.Address, error) {
				return nil, errors.New("connection refused")
			},
		}
		svc := address.NewService(repo, testDirectory())

		_, err := svc.List(context.Background(), customerID)

		assert.Error(t, err)
	})
}

func TestService_Create(t *testing.T) {
	repo := &mockRepository{
		createFunc: func(ctx context.Context, addr *address.Address) error {
			assert.NotEqual(t, uuid.Nil, addr.ID, "service must assign the id before persisting")
			return nil
		},
	}
	svc := address.NewService(repo, testDirectory())

	created, err := svc.Create(context.Background(), &address.Address{
		CustomerID:    uuid.Must(uuid.NewV4()),
		RecipientName: "Trần Thị B",
		Phone:         "0911222333",
		Line:          "12 Hàng Trống",
		RegionID:      "01",
		SubregionID:   "002",
		LocalityID:    "00037",
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
}

func TestService_SetDefault(t *testing.T) {
	customerID := uuid.Must(uuid.NewV4())
	addressID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name      string
		repoErr   error
		wantErrIs error
	}{
		{name: "success"},
		{name: "not_found", repoErr: address.ErrNotFound, wantErrIs: address.ErrNotFound},
		{name: "concurrent_default_change", repoErr: address.ErrDefaultConflict, wantErrIs: address.ErrDefaultConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				setDefaultFunc: func(ctx context.Context, gotCustomer, gotID uuid.UUID) error {
					assert.Equal(t, customerID, gotCustomer)
					assert.Equal(t, addressID, gotID)
					return tt.repoErr
				},
			}
			svc := address.NewService(repo, testDirectory())

			err := svc.SetDefault(context.Background(), customerID, addressID)

			if tt.wantErrIs == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErrIs))
		})
	}
}

func TestService_GetActive(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	t.Run("active_address", func(t *testing.T) {
		repo := &mockRepository{
			getByIDFunc: func(ctx context.Context, gotID uuid.UUID) (*address.Address, error) {
				return &address.Address{ID: gotID, IsActive: true}, nil
			},
		}
		svc := address.NewService(repo, testDirectory())

		addr, err := svc.GetActive(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, id, addr.ID)
	})

	t.Run("deactivated_address_is_hidden", func(t *testing.T) {
		repo := &mockRepository{
			getByIDFunc: func(ctx context.Context, gotID uuid.UUID) (*address.Address, error) {
				return &address.Address{ID: gotID, IsActive: false}, nil
			},
		}
		svc := address.NewService(repo, testDirectory())

		_, err := svc.GetActive(context.Background(), id)

		assert.True(t, errors.Is(err, address.ErrNotFound))
	})

	t.Run("not_found", func(t *testing.T) {
		repo := &mockRepository{
			getByIDFunc: func(ctx context.Context, gotID uuid.UUID) (*address.Address, error) {
				return nil, address.ErrNotFound
			},
		}
		svc := address.NewService(repo, testDirectory())

		_, err := svc.GetActive(context.Background(), id)

		assert.True(t, errors.Is(err, address.ErrNotFound))
	})
}
