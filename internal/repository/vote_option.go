package repository

import (
	"context"
	"errors"

	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type VoteOptionRepository interface {
	Create(ctx context.Context, data *entity.VoteOption) error
	CreateMany(ctx context.Context, data []entity.VoteOption) error
	GetByID(ctx context.Context, id string) (*entity.VoteOption, error)
	GetByIDAndFixture(ctx context.Context, id, fixtureID string) (*entity.VoteOption, error)
	GetListByFixture(ctx context.Context, fixtureID string, surface entity.Surface) ([]entity.VoteOption, error)
	CountByFixture(ctx context.Context, fixtureID string) (int64, error)
	GetLastDisplayOrder(ctx context.Context, fixtureID string, surface entity.Surface) (int, error)
	GetFixtureIDsByCategory(ctx context.Context, categoryKey string) ([]string, error)
	ReassignCategory(ctx context.Context, from, to string) (int64, error)
	IncreaseVotes(ctx context.Context, id string) error
	DecreaseVotes(ctx context.Context, id string) error
}

type voteOptionRepository struct{}

func NewVoteOptionRepository() *voteOptionRepository {
	return &voteOptionRepository{}
}

func (r *voteOptionRepository) Create(ctx context.Context, data *entity.VoteOption) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *voteOptionRepository) CreateMany(ctx context.Context, data []entity.VoteOption) error {
	if len(data) == 0 {
		return nil
	}

	return xcontext.DB(ctx).Create(&data).Error
}

func (r *voteOptionRepository) GetByID(ctx context.Context, id string) (*entity.VoteOption, error) {
	var result entity.VoteOption
	if err := xcontext.DB(ctx).Where("id=?", id).Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *voteOptionRepository) GetByIDAndFixture(
	ctx context.Context, id, fixtureID string,
) (*entity.VoteOption, error) {
	var result entity.VoteOption
	err := xcontext.DB(ctx).
		Where("id=? AND fixture_id=?", id, fixtureID).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *voteOptionRepository) GetListByFixture(
	ctx context.Context, fixtureID string, surface entity.Surface,
) ([]entity.VoteOption, error) {
	var result []entity.VoteOption
	err := xcontext.DB(ctx).
		Where("fixture_id=? AND surface=?", fixtureID, surface).
		Order("display_order ASC").Order("id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *voteOptionRepository) CountByFixture(ctx context.Context, fixtureID string) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).Model(&entity.VoteOption{}).
		Where("fixture_id=?", fixtureID).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (r *voteOptionRepository) GetLastDisplayOrder(
	ctx context.Context, fixtureID string, surface entity.Surface,
) (int, error) {
	var result int
	err := xcontext.DB(ctx).Model(&entity.VoteOption{}).Select("display_order").
		Where("fixture_id=? AND surface=?", fixtureID, surface).
		Order("display_order DESC").
		Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}

		return 0, err
	}

	return result, nil
}

func (r *voteOptionRepository) GetFixtureIDsByCategory(ctx context.Context, categoryKey string) ([]string, error) {
	var result []string
	err := xcontext.DB(ctx).Model(&entity.VoteOption{}).
		Distinct("fixture_id").
		Where("category_key=?", categoryKey).
		Pluck("fixture_id", &result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *voteOptionRepository) ReassignCategory(ctx context.Context, from, to string) (int64, error) {
	tx := xcontext.DB(ctx).
		Model(&entity.VoteOption{}).
		Where("category_key=?", from).
		Update("category_key", to)
	if tx.Error != nil {
		return 0, tx.Error
	}

	return tx.RowsAffected, nil
}

func (r *voteOptionRepository) IncreaseVotes(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.VoteOption{}).
		Where("id=?", id).
		Update("votes_count", gorm.Expr("votes_count+1"))

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of affected rows is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// DecreaseVotes never lets the counter go below zero. A counter already at zero is left as is
// and no error is returned.
func (r *voteOptionRepository) DecreaseVotes(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.VoteOption{}).
		Where("id=? AND votes_count > 0", id).
		Update("votes_count", gorm.Expr("votes_count-1"))

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of affected rows is invalid")
	}

	return nil
}
