package repository

import (
	"context"
	"time"

	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoterFilter struct {
	Kind           entity.VoterKind
	Key            string
	NetworkAddress string
}

type VoteSelection struct {
	OptionID    string
	CategoryKey string
	CreatedAt   time.Time
}

type VoteRepository interface {
	Create(ctx context.Context, data *entity.Vote) error
	GetByVoterAndCategory(
		ctx context.Context, voter VoterFilter, fixtureID string, surface entity.Surface, categoryKey string,
	) ([]entity.Vote, error)
	GetByVoterAndOption(
		ctx context.Context, voter VoterFilter, fixtureID, optionID string, surface entity.Surface,
	) (*entity.Vote, error)
	GetSelections(
		ctx context.Context, voter VoterFilter, fixtureID string, surface entity.Surface,
	) ([]VoteSelection, error)
	UpdateOption(ctx context.Context, id int64, optionID string) error
	DeleteByID(ctx context.Context, id int64) error
	CountByOption(ctx context.Context, optionID string) (int64, error)
}

type voteRepository struct{}

func NewVoteRepository() *voteRepository {
	return &voteRepository{}
}

func (r *voteRepository) voterScope(voter VoterFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"votes.voter_kind=? AND votes.voter_key=? AND votes.network_address=?",
			voter.Kind, voter.Key, voter.NetworkAddress,
		)
	}
}

func (r *voteRepository) Create(ctx context.Context, data *entity.Vote) error {
	if data.ID == 0 {
		data.ID = xcontext.SnowFlake(ctx).Generate().Int64()
	}

	return xcontext.DB(ctx).Create(data).Error
}

// GetByVoterAndCategory is a locking read. On MySQL the next-key locks make a concurrent insert
// into the same category wait, and one of the two transactions is aborted as a deadlock.
func (r *voteRepository) GetByVoterAndCategory(
	ctx context.Context, voter VoterFilter, fixtureID string, surface entity.Surface, categoryKey string,
) ([]entity.Vote, error) {
	var result []entity.Vote
	err := xcontext.DB(ctx).Model(&entity.Vote{}).
		Select("votes.*").
		Joins("join vote_options on vote_options.id=votes.option_id").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(r.voterScope(voter)).
		Where("votes.fixture_id=? AND votes.surface=? AND vote_options.category_key=?",
			fixtureID, surface, categoryKey).
		Order("votes.created_at ASC").Order("votes.id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *voteRepository) GetByVoterAndOption(
	ctx context.Context, voter VoterFilter, fixtureID, optionID string, surface entity.Surface,
) (*entity.Vote, error) {
	var result entity.Vote
	err := xcontext.DB(ctx).Model(&entity.Vote{}).
		Scopes(r.voterScope(voter)).
		Where("votes.fixture_id=? AND votes.option_id=? AND votes.surface=?", fixtureID, optionID, surface).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *voteRepository) GetSelections(
	ctx context.Context, voter VoterFilter, fixtureID string, surface entity.Surface,
) ([]VoteSelection, error) {
	var result []VoteSelection
	err := xcontext.DB(ctx).Model(&entity.Vote{}).
		Select("votes.option_id, vote_options.category_key, votes.created_at").
		Joins("join vote_options on vote_options.id=votes.option_id").
		Scopes(r.voterScope(voter)).
		Where("votes.fixture_id=? AND votes.surface=?", fixtureID, surface).
		Order("votes.created_at ASC").Order("votes.id ASC").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *voteRepository) UpdateOption(ctx context.Context, id int64, optionID string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Vote{}).
		Where("id=?", id).
		Update("option_id", optionID)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *voteRepository) DeleteByID(ctx context.Context, id int64) error {
	tx := xcontext.DB(ctx).Delete(&entity.Vote{}, "id=?", id)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *voteRepository) CountByOption(ctx context.Context, optionID string) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).Model(&entity.Vote{}).
		Where("option_id=?", optionID).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}
