package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/category"
	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound = apperror.NotFound("CategoryNotFound", "Category not found")
	ErrParentNotFound   = apperror.BadRequest("ParentCategoryNotFound", "Parent category not found")
	ErrSelfParent       = apperror.BadRequest("CategorySelfParent", "A category cannot be its own parent")
	ErrCategoryInUse    = apperror.Conflict("CategoryInUse", "Category still has products")
)

type categoryUseCase struct {
	repo   category.Repository
	logger logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	if err := uc.checkParent(ctx, input.MerchantID, "", input.ParentID); err != nil {
		return nil, err
	}

	now := time.Now()
	cat := &model.Category{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		MerchantID:  input.MerchantID,
		ParentID:    normalizeParent(input.ParentID),
		Name:        input.Name,
		Description: optional(input.Description),
		ImageURL:    optional(input.ImageURL),
		SortOrder:   input.SortOrder,
		IsActive:    true,
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, merchantID, id string) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, ErrCategoryNotFound
	}
	return cat, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	if !filters.IncludeChildren {
		return uc.repo.FindAll(ctx, filters)
	}

	// Trees need the whole merchant set, so paging is ignored here.
	all, _, err := uc.repo.FindAll(ctx, &dto.CategoryFilters{MerchantID: filters.MerchantID, IsActive: filters.IsActive})
	if err != nil {
		return nil, 0, err
	}
	tree := BuildTree(all)
	return tree, len(tree), nil
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	cat, err := uc.GetCategory(ctx, input.MerchantID, input.ID)
	if err != nil {
		return nil, err
	}
	if err := uc.checkParent(ctx, input.MerchantID, input.ID, input.ParentID); err != nil {
		return nil, err
	}

	cat.Name = input.Name
	cat.Description = optional(input.Description)
	cat.ImageURL = optional(input.ImageURL)
	cat.SortOrder = input.SortOrder
	cat.IsActive = input.IsActive
	cat.ParentID = normalizeParent(input.ParentID)
	cat.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, merchantID, id string) error {
	if _, err := uc.GetCategory(ctx, merchantID, id); err != nil {
		return err
	}

	// products must be moved out first
	n, err := uc.repo.CountProducts(ctx, merchantID, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryInUse.WithDetails(map[string]int{"products": n})
	}
	return uc.repo.Delete(ctx, merchantID, id)
}

func (uc *categoryUseCase) checkParent(ctx context.Context, merchantID, selfID string, parentID *string) error {
	parentID = normalizeParent(parentID)
	if parentID == nil {
		return nil
	}
	if *parentID == selfID {
		return ErrSelfParent
	}
	parent, err := uc.repo.FindByID(ctx, merchantID, *parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return ErrParentNotFound
	}
	return nil
}

// BuildTree nests categories under their parents. Categories whose parent is
// missing from the input are returned as roots.
func BuildTree(flat []model.Category) []model.Category {
	children := make(map[string][]model.Category)
	known := make(map[string]bool, len(flat))
	for _, c := range flat {
		known[c.ID] = true
	}

	var roots []model.Category
	for _, c := range flat {
		if c.ParentID != nil && known[*c.ParentID] {
			children[*c.ParentID] = append(children[*c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}

	var attach func(nodes []model.Category) []model.Category
	attach = func(nodes []model.Category) []model.Category {
		for i := range nodes {
			nodes[i].Children = attach(children[nodes[i].ID])
		}
		return nodes
	}
	return attach(roots)
}

func normalizeParent(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
