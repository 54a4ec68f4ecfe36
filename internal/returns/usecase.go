package returns

import (
	"context"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/returns/dto"
)

type UseCase interface {
	CreateReturn(ctx context.Context, input *dto.CreateReturnInput) (*model.Return, error)
	GetReturn(ctx context.Context, merchantID, id string) (*model.Return, error)
	ListReturns(ctx context.Context, filters *dto.ReturnFilters) ([]model.Return, int, error)
	ApproveReturn(ctx context.Context, merchantID, id, userID string) (*model.Return, error)
	RejectReturn(ctx context.Context, merchantID, id string) (*model.Return, error)
}
