// Package registry is the read model of the vote options of a fixture. Category ordering and
// surface isolation are applied here and nowhere else.
package registry

import (
	"context"
	"errors"
	"math"

	"github.com/matchpoll/backend/internal/domain/classifier"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/internal/repository"
	"github.com/matchpoll/backend/pkg/errorx"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type Registry struct {
	voteOptionRepo repository.VoteOptionRepository
	categoryRepo   repository.CategoryRepository
}

func New(
	voteOptionRepo repository.VoteOptionRepository,
	categoryRepo repository.CategoryRepository,
) *Registry {
	return &Registry{
		voteOptionRepo: voteOptionRepo,
		categoryRepo:   categoryRepo,
	}
}

// GetOptions returns the options of a fixture surface ordered by category rank, then default
// options before custom ones, then display order, then id. Options of an unknown category rank
// last.
func (r *Registry) GetOptions(
	ctx context.Context, fixtureID string, surface entity.Surface,
) ([]entity.VoteOption, error) {
	options, err := r.voteOptionRepo.GetListByFixture(ctx, fixtureID, surface)
	if err != nil {
		return nil, err
	}

	ranks, err := r.categoryRanks(ctx)
	if err != nil {
		return nil, err
	}

	SortOptions(options, ranks)
	return options, nil
}

// GetOption returns the option only if it belongs to the fixture.
func (r *Registry) GetOption(ctx context.Context, optionID, fixtureID string) (*entity.VoteOption, error) {
	option, err := r.voteOptionRepo.GetByIDAndFixture(ctx, optionID, fixtureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InvalidOption, "Option %s is not part of fixture %s", optionID, fixtureID)
		}

		return nil, err
	}

	return option, nil
}

func (r *Registry) DefaultCategoryFor(label string) string {
	return classifier.DefaultCategoryFor(label)
}

func (r *Registry) categoryRanks(ctx context.Context) (map[string]int, error) {
	categories, err := r.categoryRepo.GetList(ctx)
	if err != nil {
		return nil, err
	}

	ranks := make(map[string]int, len(categories))
	for _, c := range categories {
		ranks[c.Key] = c.Position
	}

	return ranks, nil
}

func SortOptions(options []entity.VoteOption, ranks map[string]int) {
	rank := func(key string) int {
		if r, ok := ranks[key]; ok {
			return r
		}
		return math.MaxInt
	}

	slices.SortStableFunc(options, func(a, b entity.VoteOption) bool {
		if ra, rb := rank(a.CategoryKey), rank(b.CategoryKey); ra != rb {
			return ra < rb
		}

		if a.IsCustom != b.IsCustom {
			return !a.IsCustom
		}

		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}

		return a.ID < b.ID
	})
}
