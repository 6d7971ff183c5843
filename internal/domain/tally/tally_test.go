package tally

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/matchpoll/backend/internal/common"
	"github.com/matchpoll/backend/internal/domain/registry"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/internal/repository"
	"github.com/matchpoll/backend/pkg/testutil"
	"github.com/matchpoll/backend/pkg/xcontext"
	"github.com/matchpoll/backend/pkg/xredis"
	"github.com/stretchr/testify/require"
)

func newRegistry() *registry.Registry {
	return registry.New(repository.NewVoteOptionRepository(), repository.NewCategoryRepository())
}

func setVotes(t *testing.T, ctx context.Context, optionID string, votes int64) {
	require.NoError(t, xcontext.DB(ctx).Model(&entity.VoteOption{}).
		Where("id=?", optionID).Update("votes_count", votes).Error)
}

func TestPercentage(t *testing.T) {
	require.Equal(t, 0.0, Percentage(0, 0))
	require.Equal(t, 0.0, Percentage(3, 0))
	require.Equal(t, 100.0, Percentage(1, 1))
	require.Equal(t, 33.3, Percentage(1, 3))
	require.Equal(t, 66.7, Percentage(2, 3))
	require.Equal(t, 14.3, Percentage(1, 7))
}

func TestCompute(t *testing.T) {
	options := []entity.VoteOption{
		{Base: entity.Base{ID: "a"}, CategoryKey: entity.CategoryMatchResult, VotesCount: 1},
		{Base: entity.Base{ID: "b"}, CategoryKey: entity.CategoryMatchResult, VotesCount: 1},
		{Base: entity.Base{ID: "c"}, CategoryKey: entity.CategoryMatchResult, VotesCount: 1},
		{Base: entity.Base{ID: "d"}, CategoryKey: entity.CategoryOther, IsCustom: true},
	}

	entries := Compute(options)
	require.Len(t, entries, 4)

	sum := 0.0
	for _, e := range entries {
		sum += e.Percentage
	}
	require.InDelta(t, 100.0, sum, 0.1+1e-9)
	require.Equal(t, 0.0, entries[3].Percentage)
	require.True(t, entries[3].IsCustom)

	require.Empty(t, Compute(nil))
	require.NotNil(t, Compute(nil))
}

func TestEngine_Tally_ReadThrough(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	setVotes(t, ctx, testutil.Option1BasicHome.ID, 3)
	setVotes(t, ctx, testutil.Option1BasicAway.ID, 1)

	cache := xredis.NewMemoryClient()
	engine := NewEngine(newRegistry(), cache, time.Minute)

	entries, err := engine.Tally(ctx, testutil.Fixture1.ID, entity.SurfaceBasic)
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{OptionID: testutil.Option1BasicHome.ID, Label: "Arsenal win", Category: entity.CategoryMatchResult, VotesCount: 3, Percentage: 75},
		{OptionID: testutil.Option1BasicDraw.ID, Label: "Draw", Category: entity.CategoryMatchResult, VotesCount: 0, Percentage: 0},
		{OptionID: testutil.Option1BasicAway.ID, Label: "Chelsea win", Category: entity.CategoryMatchResult, VotesCount: 1, Percentage: 25},
	}, entries)

	// Served from the cache until invalidated.
	setVotes(t, ctx, testutil.Option1BasicDraw.ID, 4)
	cached, err := engine.Tally(ctx, testutil.Fixture1.ID, entity.SurfaceBasic)
	require.NoError(t, err)
	require.Equal(t, entries, cached)

	require.NoError(t, engine.Invalidate(ctx, testutil.Fixture1.ID))
	fresh, err := engine.Tally(ctx, testutil.Fixture1.ID, entity.SurfaceBasic)
	require.NoError(t, err)
	require.Equal(t, int64(4), fresh[1].VotesCount)
	require.Equal(t, 50.0, fresh[1].Percentage)
}

func TestEngine_Tally_SurfacesAreSeparate(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	setVotes(t, ctx, testutil.Option1DetailedHome.ID, 2)

	engine := NewEngine(newRegistry(), xredis.NewMemoryClient(), time.Minute)

	basic, err := engine.Tally(ctx, testutil.Fixture1.ID, entity.SurfaceBasic)
	require.NoError(t, err)
	for _, e := range basic {
		require.Zero(t, e.VotesCount)
		require.Zero(t, e.Percentage)
	}

	detailed, err := engine.Tally(ctx, testutil.Fixture1.ID, entity.SurfaceDetailed)
	require.NoError(t, err)
	require.Len(t, detailed, 5)
	require.Equal(t, 100.0, detailed[0].Percentage)
}

func TestEngine_Tally_CacheFailure(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	setVotes(t, ctx, testutil.Option1BasicDraw.ID, 1)

	var setKeys []string
	cache := &testutil.MockRedisClient{
		GetObjFunc: func(ctx context.Context, key string, v any) error {
			return errors.New("connection reset")
		},
		SetObjFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) error {
			setKeys = append(setKeys, key)
			require.Equal(t, 2*time.Minute, ttl)
			return errors.New("connection reset")
		},
	}

	entries, err := NewEngine(newRegistry(), cache, 2*time.Minute).
		Tally(ctx, testutil.Fixture1.ID, entity.SurfaceBasic)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, 100.0, entries[1].Percentage)
	require.Equal(t, []string{common.RedisKeyTally(testutil.Fixture1.ID, "basic")}, setKeys)
}

func TestEngine_Tally_WriteBack(t *testing.T) {
	testCases := []struct {
		name        string
		generations []string
		genErr      error
		wantWrite   bool
	}{
		{
			name:        "generation unchanged",
			generations: []string{"g1", "g1"},
			wantWrite:   true,
		},
		{
			name:        "invalidated while computing",
			generations: []string{"g1", "g2"},
		},
		{
			name:        "first invalidation while computing",
			generations: []string{"", "g1"},
		},
		{
			name:   "generation unreadable",
			genErr: errors.New("connection reset"),
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testutil.MockContext()
			testutil.CreateFixtureDb(ctx)

			reads := 0
			written := false
			cache := &testutil.MockRedisClient{
				GetFunc: func(ctx context.Context, key string) (string, error) {
					require.Equal(t, common.RedisKeyTallyGeneration(testutil.Fixture1.ID), key)
					if tt.genErr != nil {
						return "", tt.genErr
					}

					generation := tt.generations[reads]
					reads++
					if generation == "" {
						return "", xredis.Nil
					}
					return generation, nil
				},
				SetObjFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) error {
					written = true
					return nil
				},
			}

			entries, err := NewEngine(newRegistry(), cache, time.Minute).
				Tally(ctx, testutil.Fixture1.ID, entity.SurfaceBasic)
			require.NoError(t, err)
			require.Len(t, entries, 3)
			require.Equal(t, tt.wantWrite, written)
		})
	}
}

func TestEngine_Invalidate(t *testing.T) {
	var deleted []string
	var generationKeys []string
	cache := &testutil.MockRedisClient{
		SetFunc: func(ctx context.Context, key, value string, ttl time.Duration) error {
			generationKeys = append(generationKeys, key)
			require.NotEmpty(t, value)
			return nil
		},
		DelFunc: func(ctx context.Context, key ...string) error {
			deleted = append(deleted, key...)
			return nil
		},
	}

	require.NoError(t, NewEngine(nil, cache, time.Minute).Invalidate(context.Background(), "f1"))
	require.Equal(t, []string{"tally:f1:basic", "tally:f1:detailed"}, deleted)
	require.Equal(t, []string{"tally_gen:f1"}, generationKeys)
}

func TestPercentageSum(t *testing.T) {
	for total := int64(1); total <= 50; total++ {
		options := []entity.VoteOption{
			{VotesCount: total / 3},
			{VotesCount: total / 5},
			{VotesCount: total - total/3 - total/5},
		}

		sum := 0.0
		for _, e := range Compute(options) {
			sum += e.Percentage
		}
		require.LessOrEqual(t, math.Abs(sum-100), 0.2, "total %d", total)
	}
}
