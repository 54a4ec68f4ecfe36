package discount

import (
	"context"

	"github.com/fekuna/omnipos-backoffice/internal/discount/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
)

type UseCase interface {
	CreateDiscount(ctx context.Context, input *dto.DiscountInput) (*model.Discount, error)
	UpdateDiscount(ctx context.Context, input *dto.DiscountInput) (*model.Discount, error)
	GetDiscount(ctx context.Context, merchantID, id string) (*model.Discount, error)
	ListDiscounts(ctx context.Context, filters *dto.DiscountFilters) ([]model.Discount, int, error)
	DeleteDiscount(ctx context.Context, merchantID, id string) error

	// ValidateDiscount has no side effects. Domain rejections come back as an
	// invalid result, not as an error.
	ValidateDiscount(ctx context.Context, input *dto.ValidateInput) (*dto.ValidationResult, error)
	RecordUsage(ctx context.Context, input *dto.RecordUsageInput) error
}
