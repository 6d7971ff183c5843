package testutil

import (
	"context"
	"reflect"

	"github.com/google/uuid"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/internal/repository"
)

// SampleFixture creates a new scheduled fixture in database. The sample fixture can be
// overwritten by non-zero fields of init.
func SampleFixture(ctx context.Context, init *entity.Fixture) (entity.Fixture, error) {
	sample := &entity.Fixture{
		ID:          uuid.NewString(),
		HomeTeam:    "Home " + uuid.NewString()[:8],
		AwayTeam:    "Away " + uuid.NewString()[:8],
		Competition: "Premier League",
		Status:      entity.FixtureScheduled,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := repository.NewFixtureRepository().Upsert(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

// SampleVoteOption creates a new basic match result option. The sample option can be overwritten
// by non-zero fields of init.
func SampleVoteOption(ctx context.Context, init *entity.VoteOption) (entity.VoteOption, error) {
	sample := &entity.VoteOption{
		Base:        entity.Base{ID: uuid.NewString()},
		Surface:     entity.SurfaceBasic,
		Label:       uuid.NewString(),
		CategoryKey: entity.CategoryMatchResult,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := repository.NewVoteOptionRepository().Create(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

func overwriteFields[T any](origin *T, overwrite T) {
	originValue := reflect.ValueOf(origin).Elem()
	overwriteValue := reflect.ValueOf(overwrite)

	for i := 0; i < overwriteValue.NumField(); i++ {
		overwriteField := overwriteValue.Field(i)
		if !overwriteField.IsZero() {
			originValue.Field(i).Set(overwriteField)
		}
	}
}
