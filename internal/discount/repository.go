package discount

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-backoffice/internal/discount/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
)

// ErrUsageLimitReached is returned by RecordRedemption when the conditional
// increment finds the limit already consumed.
var ErrUsageLimitReached = errors.New("discount usage limit reached")

// ErrNotFound is returned by RecordRedemption when the discount does not
// exist for the merchant.
var ErrNotFound = errors.New("discount not found")

type Repository interface {
	Create(ctx context.Context, discount *model.Discount) error
	FindByID(ctx context.Context, merchantID, id string) (*model.Discount, error)
	FindByCode(ctx context.Context, merchantID, code string) (*model.Discount, error)
	FindAll(ctx context.Context, filters *dto.DiscountFilters) ([]model.Discount, int, error)
	Update(ctx context.Context, discount *model.Discount) error
	Delete(ctx context.Context, merchantID, id string) error
	Deactivate(ctx context.Context, merchantID, id string) error

	// CountCustomerOrders counts orders placed by customerID with the discount applied.
	CountCustomerOrders(ctx context.Context, merchantID, discountID, customerID string) (int, error)
	// ProductCategoryIDs returns the category IDs of the given products.
	ProductCategoryIDs(ctx context.Context, merchantID string, productIDs []string) ([]string, error)

	// RecordRedemption locks the discount row, inserts the redemption and
	// bumps usage_count in one transaction. It returns false when the order
	// was already recorded.
	RecordRedemption(ctx context.Context, redemption *model.DiscountRedemption) (bool, error)
}
