package loyalty

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-backoffice/internal/loyalty/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
)

var (
	ErrCustomerNotFound = errors.New("loyalty: customer not found")
	ErrNegativeBalance  = errors.New("loyalty: balance would go negative")
	ErrAlreadyPosted    = errors.New("loyalty: order already earned points")
)

type Repository interface {
	// Post locks the customer row, checks the resulting balance, appends the
	// ledger row and writes the new balance in one transaction.
	Post(ctx context.Context, txn *model.LoyaltyTransaction) (int, error)
	GetBalance(ctx context.Context, merchantID, customerID string) (int, error)
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.LoyaltyTransaction, int, error)
}
