package returns

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/returns/dto"
)

var (
	ErrNotPending        = errors.New("return is not pending")
	ErrExceedsReturnable = errors.New("return quantity exceeds returnable quantity")
)

type Repository interface {
	// Returnable maps each order item to its quantity not yet covered by a
	// pending or approved return.
	Returnable(ctx context.Context, merchantID, orderID string) (map[string]int, error)
	// Create re-checks Returnable under a lock on the order before inserting.
	Create(ctx context.Context, ret *model.Return) error
	FindByID(ctx context.Context, merchantID, id string) (*model.Return, error)
	FindAll(ctx context.Context, filters *dto.ReturnFilters) ([]model.Return, int, error)
	// Approve restocks and credits in the same transaction as the status change.
	Approve(ctx context.Context, merchantID, id string, actor *string) ([]model.InventoryMovement, error)
	Reject(ctx context.Context, merchantID, id string) error
}
