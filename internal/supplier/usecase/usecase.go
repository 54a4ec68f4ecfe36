package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/supplier"
	"github.com/fekuna/omnipos-backoffice/internal/supplier/dto"
	"github.com/google/uuid"
)

var (
	ErrSupplierNotFound = apperror.NotFound("SupplierNotFound", "Supplier not found")
	ErrNameRequired     = apperror.BadRequest("NameRequired", "Name is required")
)

type supplierUseCase struct {
	repo   supplier.Repository
	logger logger.ZapLogger
}

func NewSupplierUseCase(repo supplier.Repository, log logger.ZapLogger) supplier.UseCase {
	return &supplierUseCase{repo: repo, logger: log}
}

func (uc *supplierUseCase) CreateSupplier(ctx context.Context, input *dto.SupplierInput) (*model.Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	now := time.Now()
	s := &model.Supplier{
		BaseModel:  model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		MerchantID: input.MerchantID,
		Name:       name,
		Email:      optional(strings.ToLower(input.Email)),
		Phone:      optional(input.Phone),
	}
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *supplierUseCase) GetSupplier(ctx context.Context, merchantID, id string) (*model.Supplier, error) {
	s, err := uc.repo.FindByID(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSupplierNotFound
	}
	return s, nil
}

func (uc *supplierUseCase) ListSuppliers(ctx context.Context, filters *dto.SupplierFilters) ([]model.Supplier, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *supplierUseCase) UpdateSupplier(ctx context.Context, input *dto.SupplierInput) (*model.Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	s, err := uc.GetSupplier(ctx, input.MerchantID, input.ID)
	if err != nil {
		return nil, err
	}

	s.Name = name
	s.Email = optional(strings.ToLower(input.Email))
	s.Phone = optional(input.Phone)
	s.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
