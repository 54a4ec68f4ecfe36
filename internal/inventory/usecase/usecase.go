package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/inventory"
	"github.com/fekuna/omnipos-backoffice/internal/inventory/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInsufficientInventory = apperror.Unprocessable("InsufficientInventory", "Insufficient inventory")
	ErrSystemBusy            = apperror.TooManyRequests("SystemBusy", "System busy, please try again later")
	ErrZeroAdjustment        = apperror.BadRequest("ZeroAdjustment", "Quantity change must not be zero")
	ErrNegativeReorderPoint  = apperror.BadRequest("NegativeReorderPoint", "Reorder point must not be negative")
)

// Locker serializes manual adjustments per stock position.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

type inventoryUseCase struct {
	repo   inventory.Repository
	locker Locker
	logger logger.ZapLogger

	lockAttempts int
	lockWait     time.Duration
}

func NewInventoryUseCase(repo inventory.Repository, locker Locker, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:         repo,
		locker:       locker,
		logger:       log,
		lockAttempts: 3,
		lockWait:     100 * time.Millisecond,
	}
}

func (uc *inventoryUseCase) GetStock(ctx context.Context, merchantID string, key model.StockKey) (*model.StockLevel, error) {
	if key.LocationID == "" {
		key.LocationID = model.DefaultLocation
	}
	level, err := uc.repo.GetStock(ctx, merchantID, key)
	if err != nil {
		return nil, err
	}
	if level == nil {
		// No movements yet: report an empty position rather than not-found.
		return &model.StockLevel{
			InventoryItem: model.InventoryItem{
				MerchantID: merchantID,
				ProductID:  key.ProductID,
				VariantID:  key.VariantID,
				LocationID: key.LocationID,
			},
		}, nil
	}
	return level, nil
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, merchantID, locationID string, page, pageSize int) ([]model.StockLevel, int, error) {
	return uc.repo.ListStock(ctx, &dto.StockFilters{
		MerchantID: merchantID,
		LocationID: locationID,
		LowStock:   true,
		Page:       page,
		PageSize:   pageSize,
	})
}

func (uc *inventoryUseCase) AdjustInventory(ctx context.Context, input *dto.AdjustInventoryInput) (*model.StockLevel, error) {
	if input.QuantityChange == 0 {
		return nil, ErrZeroAdjustment
	}
	key := model.StockKey{ProductID: input.ProductID, VariantID: input.VariantID, LocationID: input.LocationID}
	if key.LocationID == "" {
		key.LocationID = model.DefaultLocation
	}

	release, err := uc.lock(ctx, input.MerchantID, key)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := uc.GetStock(ctx, input.MerchantID, key)
	if err != nil {
		return nil, err
	}
	if current.Quantity+input.QuantityChange < 0 {
		return nil, ErrInsufficientInventory.WithDetails(map[string]int{
			"available": current.Quantity,
			"requested": -input.QuantityChange,
		})
	}

	refType := model.ReferenceManual
	var createdBy *string
	if input.UserID != "" {
		createdBy = &input.UserID
	}

	movement := &model.InventoryMovement{
		ID:            uuid.New().String(),
		MerchantID:    input.MerchantID,
		ProductID:     input.ProductID,
		VariantID:     input.VariantID,
		LocationID:    key.LocationID,
		MovementType:  model.MovementAdjustment,
		Quantity:      input.QuantityChange,
		ReferenceType: &refType,
		Notes:         input.Reason,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now(),
	}

	if err := uc.repo.PostMovement(ctx, movement); err != nil {
		return nil, err
	}

	uc.logger.Info("inventory adjusted",
		zap.String("merchant_id", input.MerchantID),
		zap.String("product_id", input.ProductID),
		zap.Int("change", input.QuantityChange),
	)

	current.InventoryItem.ID = movement.InventoryItemID
	current.Quantity += input.QuantityChange
	return current, nil
}

func (uc *inventoryUseCase) SetReorderPoint(ctx context.Context, input *dto.SetReorderPointInput) (*model.StockLevel, error) {
	if input.ReorderPoint < 0 {
		return nil, ErrNegativeReorderPoint
	}
	key := model.StockKey{ProductID: input.ProductID, VariantID: input.VariantID, LocationID: input.LocationID}
	if key.LocationID == "" {
		key.LocationID = model.DefaultLocation
	}
	if err := uc.repo.SetReorderPoint(ctx, input.MerchantID, key, input.ReorderPoint); err != nil {
		return nil, err
	}
	return uc.GetStock(ctx, input.MerchantID, key)
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

func (uc *inventoryUseCase) lock(ctx context.Context, merchantID string, key model.StockKey) (func(), error) {
	if uc.locker == nil {
		return func() {}, nil
	}

	lockKey := fmt.Sprintf("lock:inventory:%s:%s:%s", merchantID, key.ProductID, key.LocationID)
	if key.VariantID != nil {
		lockKey += ":" + *key.VariantID
	}
	lockValue := uuid.New().String()

	for i := 0; i < uc.lockAttempts; i++ {
		ok, err := uc.locker.AcquireLock(ctx, lockKey, lockValue, 5*time.Second)
		if err != nil {
			uc.logger.Error("failed to acquire lock redis error", zap.Error(err))
		}
		if ok {
			return func() {
				if err := uc.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, lockValue); err != nil {
					uc.logger.Warn("failed to release inventory lock", zap.String("key", lockKey), zap.Error(err))
				}
			}, nil
		}
		time.Sleep(uc.lockWait)
	}
	return nil, ErrSystemBusy
}
