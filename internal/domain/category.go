package domain

import (
	"context"
	"errors"
	"regexp"

	"github.com/matchpoll/backend/internal/common"
	"github.com/matchpoll/backend/internal/domain/tally"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/internal/model"
	"github.com/matchpoll/backend/internal/repository"
	"github.com/matchpoll/backend/pkg/errorx"
	"github.com/matchpoll/backend/pkg/xcontext"
	"gorm.io/gorm"
)

var categoryKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{1,63}$`)

type CategoryDomain interface {
	GetCategories(context.Context, *model.GetCategoriesRequest) (*model.GetCategoriesResponse, error)
	CreateCategory(context.Context, *model.CreateCategoryRequest) (*model.CreateCategoryResponse, error)
	UpdateCategory(context.Context, *model.UpdateCategoryRequest) (*model.UpdateCategoryResponse, error)
	DeleteCategory(context.Context, *model.DeleteCategoryRequest) (*model.DeleteCategoryResponse, error)
}

type categoryDomain struct {
	categoryRepo   repository.CategoryRepository
	voteOptionRepo repository.VoteOptionRepository
	tallyEngine    *tally.Engine
	adminVerifier  *common.AdminVerifier
}

func NewCategoryDomain(
	categoryRepo repository.CategoryRepository,
	voteOptionRepo repository.VoteOptionRepository,
	tallyEngine *tally.Engine,
) *categoryDomain {
	return &categoryDomain{
		categoryRepo:   categoryRepo,
		voteOptionRepo: voteOptionRepo,
		tallyEngine:    tallyEngine,
		adminVerifier:  common.NewAdminVerifier(),
	}
}

func (d *categoryDomain) GetCategories(
	ctx context.Context, req *model.GetCategoriesRequest,
) (*model.GetCategoriesResponse, error) {
	categories, err := d.categoryRepo.GetList(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get category list: %v", err)
		return nil, errorx.Unknown
	}

	clientCategories := []model.Category{}
	for _, c := range categories {
		clientCategories = append(clientCategories, model.ConvertCategory(&c))
	}

	return &model.GetCategoriesResponse{Categories: clientCategories}, nil
}

func (d *categoryDomain) CreateCategory(
	ctx context.Context, req *model.CreateCategoryRequest,
) (*model.CreateCategoryResponse, error) {
	if err := verifyAdmin(ctx, d.adminVerifier); err != nil {
		return nil, err
	}

	if !categoryKeyRegex.MatchString(req.Key) {
		return nil, errorx.New(errorx.BadRequest, "Invalid category key")
	}

	if req.Label == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a label")
	}

	position := req.Position
	if position <= 0 {
		last, err := d.categoryRepo.GetLastPosition(ctx)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get last category position: %v", err)
			return nil, errorx.Unknown
		}
		position = last + 1
	}

	err := d.categoryRepo.Create(ctx, &entity.Category{
		Key:      req.Key,
		Label:    req.Label,
		Position: position,
	})
	if err != nil {
		if repository.IsDuplicatedKey(err) {
			return nil, errorx.New(errorx.AlreadyExists, "Category %s already exists", req.Key)
		}

		xcontext.Logger(ctx).Errorf("Cannot create category: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateCategoryResponse{Key: req.Key}, nil
}

func (d *categoryDomain) UpdateCategory(
	ctx context.Context, req *model.UpdateCategoryRequest,
) (*model.UpdateCategoryResponse, error) {
	if err := verifyAdmin(ctx, d.adminVerifier); err != nil {
		return nil, err
	}

	if req.Key == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a category key")
	}

	if req.Label == "" && req.Position <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Nothing to update")
	}

	err := d.categoryRepo.UpdateByKey(ctx, req.Key, &entity.Category{
		Label:    req.Label,
		Position: req.Position,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found category")
		}

		xcontext.Logger(ctx).Errorf("Cannot update category: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UpdateCategoryResponse{}, nil
}

// DeleteCategory soft-deletes the category and moves its options to the reserved other
// category. The affected tallies are invalidated after the commit.
func (d *categoryDomain) DeleteCategory(
	ctx context.Context, req *model.DeleteCategoryRequest,
) (*model.DeleteCategoryResponse, error) {
	if err := verifyAdmin(ctx, d.adminVerifier); err != nil {
		return nil, err
	}

	if req.Key == entity.CategoryOther {
		return nil, errorx.New(errorx.ReservedCategory, "Category %s cannot be deleted", req.Key)
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if _, err := d.categoryRepo.GetByKey(ctx, req.Key); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found category")
		}

		xcontext.Logger(ctx).Errorf("Cannot get category: %v", err)
		return nil, errorx.Unknown
	}

	fixtureIDs, err := d.voteOptionRepo.GetFixtureIDsByCategory(ctx, req.Key)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get fixtures of category: %v", err)
		return nil, errorx.Unknown
	}

	reassigned, err := d.voteOptionRepo.ReassignCategory(ctx, req.Key, entity.CategoryOther)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reassign options of category: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.categoryRepo.DeleteByKey(ctx, req.Key); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete category: %v", err)
		return nil, errorx.Unknown
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit category deletion: %v", err)
		return nil, errorx.Unknown
	}

	for _, fixtureID := range fixtureIDs {
		if err := d.tallyEngine.Invalidate(ctx, fixtureID); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot invalidate tally of fixture %s: %v", fixtureID, err)
		}
	}

	return &model.DeleteCategoryResponse{ReassignedOptions: int(reassigned)}, nil
}
