package entity

import (
	"context"

	"github.com/matchpoll/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

func MigrateTable(ctx context.Context) error {
	db := xcontext.DB(ctx)
	if err := db.AutoMigrate(
		&Category{},
		&Fixture{},
		&VoteOption{},
		&Vote{},
	); err != nil {
		return err
	}

	return SeedCategories(ctx)
}

// SeedCategories inserts the default categories without touching existing labels.
func SeedCategories(ctx context.Context) error {
	categories := make([]Category, len(DefaultCategories))
	copy(categories, DefaultCategories)

	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&categories).Error
}
