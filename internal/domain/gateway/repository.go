package gateway

import "context"

//go:generate mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks

// MutateFunc applies a change to a loaded gateway inside the update
// transaction. Returning an error aborts the update.
type MutateFunc func(current *Gateway) (*Gateway, error)

// Repository defines persistence of the gateway aggregate. Each method is
// atomic with respect to a single gateway.
type Repository interface {
	List(ctx context.Context) ([]*Gateway, error)
	GetBySerial(ctx context.Context, serialNumber string) (*Gateway, error)
	ExistsBySerial(ctx context.Context, serialNumber string) (bool, error)
	Create(ctx context.Context, gw *Gateway) error
	Update(ctx context.Context, serialNumber string, mutate MutateFunc) (*Gateway, error)
	Delete(ctx context.Context, serialNumber string) (*Gateway, error)
	AddDevice(ctx context.Context, serialNumber string, device *Device) (*Gateway, error)
	RemoveDevice(ctx context.Context, serialNumber string, uid int64) error
}
