package order

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/order/dto"
)

var (
	// ErrStatusChanged means the stored status no longer matched the expected source state.
	ErrStatusChanged = errors.New("order status changed concurrently")
	ErrNotPending    = errors.New("order is not pending")
)

type Repository interface {
	// Create inserts the order, its items and the given sale movements in one transaction.
	Create(ctx context.Context, order *model.Order, movements []model.InventoryMovement) error
	FindByID(ctx context.Context, merchantID, id string) (*model.Order, error)
	FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)

	// Transition moves the order from -> to. When compensate is set, every sale
	// movement of the order is reversed with a movement of that type in the same
	// transaction, less what approved returns already restocked. It returns the
	// compensating movements.
	Transition(ctx context.Context, order *model.Order, from model.OrderStatus, compensate model.MovementType, actor *string) ([]model.InventoryMovement, error)

	// Delete removes a pending order with its items and movements.
	Delete(ctx context.Context, merchantID, id string) error
}
