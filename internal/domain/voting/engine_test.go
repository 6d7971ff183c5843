package voting

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/matchpoll/backend/internal/domain/identity"
	"github.com/matchpoll/backend/internal/domain/registry"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/internal/repository"
	"github.com/matchpoll/backend/pkg/errorx"
	"github.com/matchpoll/backend/pkg/testutil"
	"github.com/matchpoll/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newEngine(policy Policy, voteRepo repository.VoteRepository) *Engine {
	voteOptionRepo := repository.NewVoteOptionRepository()
	if voteRepo == nil {
		voteRepo = repository.NewVoteRepository()
	}

	return NewEngine(
		policy,
		repository.NewFixtureRepository(),
		voteOptionRepo,
		voteRepo,
		registry.New(voteOptionRepo, repository.NewCategoryRepository()),
	)
}

func votesCount(t *testing.T, ctx context.Context, optionID string) int64 {
	option, err := repository.NewVoteOptionRepository().GetByID(ctx, optionID)
	require.NoError(t, err)
	return option.VotesCount
}

func requireCounterInvariant(t *testing.T, ctx context.Context) {
	for _, o := range testutil.VoteOptions {
		rows, err := repository.NewVoteRepository().CountByOption(ctx, o.ID)
		require.NoError(t, err)
		require.Equal(t, rows, votesCount(t, ctx, o.ID), "counter of %s", o.ID)
	}
}

func TestEngine_Cast_AddReplaceRemove(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newEngine(DefaultPolicy(), nil)
	voter := identity.Anonymous("token-v", "10.0.0.1")

	// An unvoted category gets the vote.
	transition, err := engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1BasicHome.ID, entity.SurfaceBasic)
	require.NoError(t, err)
	require.Equal(t, &Transition{
		Action:   ActionAdded,
		Category: entity.CategoryMatchResult,
		OptionID: testutil.Option1BasicHome.ID,
	}, transition)
	require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1BasicHome.ID))

	// Another option of the same category moves the vote.
	transition, err = engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1BasicDraw.ID, entity.SurfaceBasic)
	require.NoError(t, err)
	require.Equal(t, &Transition{
		Action:           ActionReplaced,
		Category:         entity.CategoryMatchResult,
		OptionID:         testutil.Option1BasicDraw.ID,
		PreviousOptionID: testutil.Option1BasicHome.ID,
	}, transition)
	require.Equal(t, int64(0), votesCount(t, ctx, testutil.Option1BasicHome.ID))
	require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1BasicDraw.ID))

	// The voted option again withdraws the vote.
	transition, err = engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1BasicDraw.ID, entity.SurfaceBasic)
	require.NoError(t, err)
	require.Equal(t, ActionRemoved, transition.Action)
	require.Empty(t, transition.PreviousOptionID)
	require.Equal(t, int64(0), votesCount(t, ctx, testutil.Option1BasicDraw.ID))

	// A third cast votes again.
	transition, err = engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1BasicDraw.ID, entity.SurfaceBasic)
	require.NoError(t, err)
	require.Equal(t, ActionAdded, transition.Action)

	requireCounterInvariant(t, ctx)
}

func TestEngine_Cast_Preconditions(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newEngine(DefaultPolicy(), nil)

	tests := []struct {
		name      string
		voter     identity.VoterIdentity
		fixtureID string
		optionID  string
		surface   entity.Surface
		wantCode  errorx.Code
	}{
		{
			name:      "fixture is finished",
			voter:     identity.Authenticated(testutil.User1ID),
			fixtureID: testutil.Fixture2.ID,
			optionID:  testutil.Option2BasicHome.ID,
			surface:   entity.SurfaceBasic,
			wantCode:  errorx.FixtureClosed,
		},
		{
			name:      "anonymous voter on detailed surface",
			voter:     identity.Anonymous("token", "10.0.0.1"),
			fixtureID: testutil.Fixture1.ID,
			optionID:  testutil.Option1DetailedHome.ID,
			surface:   entity.SurfaceDetailed,
			wantCode:  errorx.AuthenticationRequired,
		},
		{
			name:      "option of another fixture",
			voter:     identity.Authenticated(testutil.User1ID),
			fixtureID: testutil.Fixture1.ID,
			optionID:  testutil.Option3BasicHome.ID,
			surface:   entity.SurfaceBasic,
			wantCode:  errorx.InvalidOption,
		},
		{
			name:      "option of another surface",
			voter:     identity.Authenticated(testutil.User1ID),
			fixtureID: testutil.Fixture1.ID,
			optionID:  testutil.Option1DetailedHome.ID,
			surface:   entity.SurfaceBasic,
			wantCode:  errorx.InvalidOption,
		},
		{
			name:      "unknown fixture",
			voter:     identity.Authenticated(testutil.User1ID),
			fixtureID: "missing",
			optionID:  testutil.Option1BasicHome.ID,
			surface:   entity.SurfaceBasic,
			wantCode:  errorx.NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Cast(ctx, tt.voter, tt.fixtureID, tt.optionID, tt.surface)
			require.True(t, errorx.Is(err, tt.wantCode), "got %v", err)
		})
	}

	requireCounterInvariant(t, ctx)
	for _, o := range testutil.VoteOptions {
		require.Zero(t, votesCount(t, ctx, o.ID))
	}
}

func TestEngine_Cast_SurfaceIsolation(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newEngine(DefaultPolicy(), nil)
	voter := identity.Authenticated(testutil.User1ID)

	_, err := engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1BasicHome.ID, entity.SurfaceBasic)
	require.NoError(t, err)

	// The same category on the other surface is a separate state.
	transition, err := engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1DetailedHome.ID, entity.SurfaceDetailed)
	require.NoError(t, err)
	require.Equal(t, ActionAdded, transition.Action)

	require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1BasicHome.ID))
	require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1DetailedHome.ID))
}

func TestEngine_Cast_CategoriesAreIndependent(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newEngine(DefaultPolicy(), nil)
	voter := identity.Authenticated(testutil.User1ID)

	for _, optionID := range []string{
		testutil.Option1DetailedHome.ID,
		testutil.Option1DetailedOver.ID,
		testutil.Option1DetailedBTTS.ID,
	} {
		transition, err := engine.Cast(ctx, voter, testutil.Fixture1.ID, optionID, entity.SurfaceDetailed)
		require.NoError(t, err)
		require.Equal(t, ActionAdded, transition.Action)
	}

	transition, err := engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1DetailedUnder.ID, entity.SurfaceDetailed)
	require.NoError(t, err)
	require.Equal(t, ActionReplaced, transition.Action)
	require.Equal(t, entity.CategoryGoalsThreshold, transition.Category)
	require.Equal(t, testutil.Option1DetailedOver.ID, transition.PreviousOptionID)

	require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1DetailedHome.ID))
	require.Equal(t, int64(0), votesCount(t, ctx, testutil.Option1DetailedOver.ID))
	require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1DetailedUnder.ID))
	require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1DetailedBTTS.ID))
	requireCounterInvariant(t, ctx)
}

func TestEngine_Cast_AnonymousVotersAreDistinct(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newEngine(DefaultPolicy(), nil)

	voters := []identity.VoterIdentity{
		identity.Anonymous("token", "10.0.0.1"),
		identity.Anonymous("token", "10.0.0.2"),
		identity.Anonymous("other", "10.0.0.1"),
		identity.Authenticated("token"),
	}

	for _, voter := range voters {
		transition, err := engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1BasicAway.ID, entity.SurfaceBasic)
		require.NoError(t, err)
		require.Equal(t, ActionAdded, transition.Action)
	}

	require.Equal(t, int64(len(voters)), votesCount(t, ctx, testutil.Option1BasicAway.ID))
}

func TestEngine_Cast_ChangeNotAllowed(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	policy := DefaultPolicy()
	policy.AllowChange = false
	policy.SurfaceAllowChange = map[entity.Surface]bool{entity.SurfaceDetailed: true}
	engine := newEngine(policy, nil)
	voter := identity.Authenticated(testutil.User1ID)

	_, err := engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1BasicHome.ID, entity.SurfaceBasic)
	require.NoError(t, err)

	_, err = engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1BasicDraw.ID, entity.SurfaceBasic)
	require.True(t, errorx.Is(err, errorx.VoteChangeNotAllowed))

	_, err = engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1BasicHome.ID, entity.SurfaceBasic)
	require.True(t, errorx.Is(err, errorx.VoteChangeNotAllowed))

	require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1BasicHome.ID))
	require.Equal(t, int64(0), votesCount(t, ctx, testutil.Option1BasicDraw.ID))

	// The detailed surface overrides the global flag.
	_, err = engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1DetailedOver.ID, entity.SurfaceDetailed)
	require.NoError(t, err)
	transition, err := engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1DetailedOver.ID, entity.SurfaceDetailed)
	require.NoError(t, err)
	require.Equal(t, ActionRemoved, transition.Action)
}

func TestEngine_Cast_MultiSelect(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	policy := DefaultPolicy()
	policy.MultiSelect = true
	engine := newEngine(policy, nil)
	voter := identity.Anonymous("token", "10.0.0.1")

	for _, optionID := range []string{testutil.Option1BasicHome.ID, testutil.Option1BasicDraw.ID} {
		transition, err := engine.Cast(ctx, voter, testutil.Fixture1.ID, optionID, entity.SurfaceBasic)
		require.NoError(t, err)
		require.Equal(t, ActionAdded, transition.Action)
	}

	require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1BasicHome.ID))
	require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1BasicDraw.ID))

	transition, err := engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1BasicHome.ID, entity.SurfaceBasic)
	require.NoError(t, err)
	require.Equal(t, ActionRemoved, transition.Action)
	require.Equal(t, int64(0), votesCount(t, ctx, testutil.Option1BasicHome.ID))
	require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1BasicDraw.ID))
	requireCounterInvariant(t, ctx)
}

func TestEngine_Cast_ReplaceDropsExtraVotes(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newEngine(DefaultPolicy(), nil)
	voter := identity.Authenticated(testutil.User1ID)

	_, err := engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1DetailedHome.ID, entity.SurfaceDetailed)
	require.NoError(t, err)
	_, err = engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1DetailedOver.ID, entity.SurfaceDetailed)
	require.NoError(t, err)

	// Both votes end up in the same category.
	require.NoError(t, xcontext.DB(ctx).Model(&entity.VoteOption{}).
		Where("id=?", testutil.Option1DetailedOver.ID).
		Update("category_key", entity.CategoryMatchResult).Error)

	transition, err := engine.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1DetailedCustom.ID, entity.SurfaceDetailed)
	require.NoError(t, err)
	require.Equal(t, ActionReplaced, transition.Action)
	require.Equal(t, testutil.Option1DetailedHome.ID, transition.PreviousOptionID)

	require.Equal(t, int64(0), votesCount(t, ctx, testutil.Option1DetailedHome.ID))
	require.Equal(t, int64(0), votesCount(t, ctx, testutil.Option1DetailedOver.ID))
	require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1DetailedCustom.ID))
	requireCounterInvariant(t, ctx)
}

// staleVoteRepository misses the first category lookups, like a transaction which read the
// state before a concurrent cast committed.
type staleVoteRepository struct {
	repository.VoteRepository
	staleReads int
}

func (r *staleVoteRepository) GetByVoterAndCategory(
	ctx context.Context, voter repository.VoterFilter, fixtureID string, surface entity.Surface, categoryKey string,
) ([]entity.Vote, error) {
	if r.staleReads > 0 {
		r.staleReads--
		return nil, nil
	}

	return r.VoteRepository.GetByVoterAndCategory(ctx, voter, fixtureID, surface, categoryKey)
}

func TestEngine_Cast_ConcurrentIdenticalAdd(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	voter := identity.Anonymous("token", "10.0.0.1")

	// The winner commits its Add.
	winner := newEngine(DefaultPolicy(), nil)
	transition, err := winner.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1BasicHome.ID, entity.SurfaceBasic)
	require.NoError(t, err)
	require.Equal(t, ActionAdded, transition.Action)

	// The loser decided to add before the winner committed, its insert hits the unique index.
	loser := newEngine(DefaultPolicy(), &staleVoteRepository{
		VoteRepository: repository.NewVoteRepository(),
		staleReads:     1,
	})
	transition, err = loser.Cast(ctx, voter, testutil.Fixture1.ID, testutil.Option1BasicHome.ID, entity.SurfaceBasic)
	require.NoError(t, err)
	require.Equal(t, ActionAdded, transition.Action)

	require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1BasicHome.ID))
	requireCounterInvariant(t, ctx)
}

// conflictVoteRepository always loses the insert race.
type conflictVoteRepository struct {
	repository.VoteRepository
	creates int
}

func (r *conflictVoteRepository) Create(ctx context.Context, data *entity.Vote) error {
	r.creates++
	return gorm.ErrDuplicatedKey
}

func TestEngine_Cast_RetriesExhausted(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	voteRepo := &conflictVoteRepository{VoteRepository: repository.NewVoteRepository()}
	policy := DefaultPolicy()
	policy.MaxRaceRetries = 2
	engine := newEngine(policy, voteRepo)

	_, err := engine.Cast(ctx, identity.Authenticated(testutil.User1ID),
		testutil.Fixture1.ID, testutil.Option1BasicHome.ID, entity.SurfaceBasic)
	require.True(t, errorx.Is(err, errorx.StorageUnavailable))
	require.Equal(t, 3, voteRepo.creates)
	require.Equal(t, int64(0), votesCount(t, ctx, testutil.Option1BasicHome.ID))
}

// deadlockVoteOptionRepository fails the first counter increments with an InnoDB deadlock.
type deadlockVoteOptionRepository struct {
	repository.VoteOptionRepository
	deadlocks int
}

func (r *deadlockVoteOptionRepository) IncreaseVotes(ctx context.Context, id string) error {
	if r.deadlocks > 0 {
		r.deadlocks--
		return &mysqldriver.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
	}

	return r.VoteOptionRepository.IncreaseVotes(ctx, id)
}

// deadlockVoteRepository fails the first locking reads of a category with a lock wait timeout.
type deadlockVoteRepository struct {
	repository.VoteRepository
	deadlocks int
}

func (r *deadlockVoteRepository) GetByVoterAndCategory(
	ctx context.Context, voter repository.VoterFilter, fixtureID string, surface entity.Surface, categoryKey string,
) ([]entity.Vote, error) {
	if r.deadlocks > 0 {
		r.deadlocks--
		return nil, &mysqldriver.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	}

	return r.VoteRepository.GetByVoterAndCategory(ctx, voter, fixtureID, surface, categoryKey)
}

func TestEngine_Cast_DeadlockIsRetried(t *testing.T) {
	testCases := []struct {
		name        string
		optionRepo  repository.VoteOptionRepository
		voteRepo    repository.VoteRepository
	}{
		{
			name: "counter update deadlock",
			optionRepo: &deadlockVoteOptionRepository{
				VoteOptionRepository: repository.NewVoteOptionRepository(),
				deadlocks:            1,
			},
			voteRepo: repository.NewVoteRepository(),
		},
		{
			name:       "locking read timeout",
			optionRepo: repository.NewVoteOptionRepository(),
			voteRepo: &deadlockVoteRepository{
				VoteRepository: repository.NewVoteRepository(),
				deadlocks:      1,
			},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testutil.MockContext()
			testutil.CreateFixtureDb(ctx)
			voter := identity.Authenticated(testutil.User1ID)

			_, err := newEngine(DefaultPolicy(), nil).Cast(ctx, voter,
				testutil.Fixture1.ID, testutil.Option1BasicHome.ID, entity.SurfaceBasic)
			require.NoError(t, err)

			engine := NewEngine(
				DefaultPolicy(),
				repository.NewFixtureRepository(),
				tt.optionRepo,
				tt.voteRepo,
				registry.New(repository.NewVoteOptionRepository(), repository.NewCategoryRepository()),
			)
			transition, err := engine.Cast(ctx, voter,
				testutil.Fixture1.ID, testutil.Option1BasicDraw.ID, entity.SurfaceBasic)
			require.NoError(t, err)
			require.Equal(t, &Transition{
				Action:           ActionReplaced,
				Category:         entity.CategoryMatchResult,
				OptionID:         testutil.Option1BasicDraw.ID,
				PreviousOptionID: testutil.Option1BasicHome.ID,
			}, transition)

			require.Equal(t, int64(0), votesCount(t, ctx, testutil.Option1BasicHome.ID))
			require.Equal(t, int64(1), votesCount(t, ctx, testutil.Option1BasicDraw.ID))
			requireCounterInvariant(t, ctx)
		})
	}
}

func TestEngine_Cast_StorageUnavailable(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM `fixtures`").WillReturnError(errors.New("connection refused"))

	ctx := xcontext.WithDB(testutil.MockContext(), db)
	_, err = newEngine(DefaultPolicy(), nil).Cast(ctx, identity.Authenticated(testutil.User1ID),
		testutil.Fixture1.ID, testutil.Option1BasicHome.ID, entity.SurfaceBasic)
	require.True(t, errorx.Is(err, errorx.StorageUnavailable))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Cast_Concurrent(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newEngine(DefaultPolicy(), nil)

	options := []string{
		testutil.Option1BasicHome.ID,
		testutil.Option1BasicDraw.ID,
		testutil.Option1BasicAway.ID,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for i := 0; i < 20; i++ {
		voter := identity.Authenticated(fmt.Sprintf("user-%d", i))
		for j := 0; j < 4; j++ {
			optionID := options[(i+j)%len(options)]
			eg.Go(func() error {
				_, err := engine.Cast(egCtx, voter, testutil.Fixture1.ID, optionID, entity.SurfaceBasic)
				return err
			})
		}
	}
	require.NoError(t, eg.Wait())

	requireCounterInvariant(t, ctx)

	for i := 0; i < 20; i++ {
		votes, err := repository.NewVoteRepository().GetByVoterAndCategory(ctx,
			VoterFilter(identity.Authenticated(fmt.Sprintf("user-%d", i))),
			testutil.Fixture1.ID, entity.SurfaceBasic, entity.CategoryMatchResult)
		require.NoError(t, err)
		require.LessOrEqual(t, len(votes), 1)
	}
}
