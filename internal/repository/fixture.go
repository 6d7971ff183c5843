package repository

import (
	"context"

	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FixtureRepository interface {
	Upsert(ctx context.Context, data *entity.Fixture, columns ...string) error
	GetByID(ctx context.Context, id string) (*entity.Fixture, error)
	UpdateStatus(ctx context.Context, id string, status entity.FixtureStatus) error
}

type fixtureRepository struct{}

func NewFixtureRepository() *fixtureRepository {
	return &fixtureRepository{}
}

// Upsert inserts the fixture, or updates the team names and competition of an existing one.
// columns names the further columns, like status or kickoff_at, which an update overwrites.
func (r *fixtureRepository) Upsert(ctx context.Context, data *entity.Fixture, columns ...string) error {
	updates := append([]string{"home_team", "away_team", "competition", "updated_at"}, columns...)
	return xcontext.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(data).Error
}

func (r *fixtureRepository) GetByID(ctx context.Context, id string) (*entity.Fixture, error) {
	var result entity.Fixture
	if err := xcontext.DB(ctx).Where("id=?", id).Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *fixtureRepository) UpdateStatus(ctx context.Context, id string, status entity.FixtureStatus) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Fixture{}).
		Where("id=?", id).
		Update("status", status)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
