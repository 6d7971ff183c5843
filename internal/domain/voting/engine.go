// Package voting implements the vote transition state machine. For every (voter, fixture,
// surface, category) the state is either unvoted or voted for one option, a cast moves it by
// adding, replacing or removing a vote while keeping the option counters equal to the number of
// vote rows.
package voting

import (
	"context"
	"errors"

	"github.com/matchpoll/backend/internal/common"
	"github.com/matchpoll/backend/internal/domain/identity"
	"github.com/matchpoll/backend/internal/domain/registry"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/internal/repository"
	"github.com/matchpoll/backend/pkg/errorx"
	"github.com/matchpoll/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type Action string

const (
	ActionAdded    Action = "added"
	ActionReplaced Action = "replaced"
	ActionRemoved  Action = "removed"
)

// errRaceLost means a concurrent transition changed the rows this one was based on. The
// transaction is rolled back and the transition derived again from fresh state.
var errRaceLost = errors.New("race lost")

type Transition struct {
	Action   Action
	Category string
	OptionID string

	// PreviousOptionID is only set on Replace.
	PreviousOptionID string
}

// plan is a transition together with the rows it mutates.
type plan struct {
	Transition
	votes []entity.Vote
}

type Engine struct {
	policy         Policy
	fixtureRepo    repository.FixtureRepository
	voteOptionRepo repository.VoteOptionRepository
	voteRepo       repository.VoteRepository
	registry       *registry.Registry
}

func NewEngine(
	policy Policy,
	fixtureRepo repository.FixtureRepository,
	voteOptionRepo repository.VoteOptionRepository,
	voteRepo repository.VoteRepository,
	registry *registry.Registry,
) *Engine {
	return &Engine{
		policy:         policy,
		fixtureRepo:    fixtureRepo,
		voteOptionRepo: voteOptionRepo,
		voteRepo:       voteRepo,
		registry:       registry,
	}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Cast toggles the vote of voter on the option. The whole transition is applied in one
// transaction, or not at all.
func (e *Engine) Cast(
	ctx context.Context,
	voter identity.VoterIdentity,
	fixtureID, optionID string,
	surface entity.Surface,
) (*Transition, error) {
	if e.policy.StorageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.policy.StorageTimeout)
		defer cancel()
	}
	ctx = xcontext.WithDB(ctx, xcontext.DB(ctx).WithContext(ctx))

	option, err := e.checkPreconditions(ctx, voter, fixtureID, optionID, surface)
	if err != nil {
		return nil, err
	}

	var lost *Transition
	for attempt := 0; attempt <= e.policy.MaxRaceRetries; attempt++ {
		transition, err := e.apply(ctx, voter, option, lost)
		if err == nil {
			common.PromCounters[common.VoteTransitionTotal].
				WithLabelValues(string(transition.Action), string(surface)).Inc()
			return transition, nil
		}

		var race *raceLostError
		if !errors.As(err, &race) {
			return nil, err
		}

		common.PromCounters[common.VoteRaceLostTotal].WithLabelValues(string(surface)).Inc()
		xcontext.Logger(ctx).Debugf("Vote transition of %s on %s lost a race (attempt %d)",
			voter, option.ID, attempt)
		if race.transition.Action != "" {
			lost = &race.transition
		}
	}

	xcontext.Logger(ctx).Warnf("Vote transition of %s on %s exhausted %d retries",
		voter, option.ID, e.policy.MaxRaceRetries)
	return nil, errorx.New(errorx.StorageUnavailable, "Too many concurrent votes, please retry")
}

func (e *Engine) checkPreconditions(
	ctx context.Context,
	voter identity.VoterIdentity,
	fixtureID, optionID string,
	surface entity.Surface,
) (*entity.VoteOption, error) {
	fixture, err := e.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found fixture")
		}

		return nil, storageError(ctx, "get fixture", err)
	}

	if e.policy.IsClosed(fixture.Status) {
		return nil, errorx.New(errorx.FixtureClosed, "Voting is closed for this fixture")
	}

	if surface == entity.SurfaceDetailed && !voter.IsAuthenticated() {
		return nil, errorx.New(errorx.AuthenticationRequired, "Please sign in to vote on match details")
	}

	option, err := e.registry.GetOption(ctx, optionID, fixtureID)
	if err != nil {
		var errx errorx.Error
		if errorx.As(err, &errx) {
			return nil, err
		}

		return nil, storageError(ctx, "get option", err)
	}

	if option.Surface != surface {
		return nil, errorx.New(errorx.InvalidOption, "Option %s is not part of the %s surface",
			optionID, surface)
	}

	return option, nil
}

// apply runs a single attempt. lost is the transition of the previous attempt which lost a
// race, if any.
func (e *Engine) apply(
	ctx context.Context,
	voter identity.VoterIdentity,
	option *entity.VoteOption,
	lost *Transition,
) (*Transition, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	p, err := e.plan(ctx, voter, option)
	if err != nil {
		if errors.Is(err, errRaceLost) {
			// Nothing was derived yet, the next attempt keeps the previous lost transition.
			return nil, &raceLostError{}
		}

		return nil, err
	}

	// A concurrent identical cast already reached the state this request was heading to. Report
	// that outcome instead of toggling it back.
	if lost != nil && lost.OptionID == p.OptionID && reaches(*lost, p.Action) {
		return lost, nil
	}

	if p.Action != ActionAdded && !e.policy.CanChange(option.Surface) {
		return nil, errorx.New(errorx.VoteChangeNotAllowed, "Changing a vote is not allowed")
	}

	switch p.Action {
	case ActionAdded:
		err = e.add(ctx, voter, option)
	case ActionReplaced:
		err = e.replace(ctx, p)
	case ActionRemoved:
		err = e.remove(ctx, p.votes)
	}

	if err != nil {
		if errors.Is(err, errRaceLost) {
			return nil, &raceLostError{transition: p.Transition}
		}

		var errx errorx.Error
		if errorx.As(err, &errx) {
			return nil, err
		}

		return nil, storageError(ctx, "apply vote transition", err)
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		if repository.IsDeadlock(err) {
			return nil, &raceLostError{transition: p.Transition}
		}

		return nil, storageError(ctx, "commit vote transition", err)
	}

	return &p.Transition, nil
}

// reaches reports whether a lost transition already ended in the state which the freshly derived
// action would leave. Adding or replacing towards an option ends voted for it, a fresh Remove of
// that option means another request got there first. The same holds for a lost Remove which now
// derives an Add.
func reaches(lost Transition, derived Action) bool {
	if lost.Action == ActionRemoved {
		return derived == ActionAdded
	}

	return derived == ActionRemoved
}

func (e *Engine) plan(
	ctx context.Context,
	voter identity.VoterIdentity,
	option *entity.VoteOption,
) (*plan, error) {
	filter := VoterFilter(voter)
	p := &plan{Transition: Transition{Category: option.CategoryKey, OptionID: option.ID}}

	if e.policy.MultiSelect {
		vote, err := e.voteRepo.GetByVoterAndOption(ctx, filter, option.FixtureID, option.ID, option.Surface)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				p.Action = ActionAdded
				return p, nil
			}

			if repository.IsDeadlock(err) {
				return nil, errRaceLost
			}

			return nil, storageError(ctx, "get vote by option", err)
		}

		p.Action = ActionRemoved
		p.votes = []entity.Vote{*vote}
		return p, nil
	}

	votes, err := e.voteRepo.GetByVoterAndCategory(
		ctx, filter, option.FixtureID, option.Surface, option.CategoryKey)
	if err != nil {
		if repository.IsDeadlock(err) {
			return nil, errRaceLost
		}

		return nil, storageError(ctx, "get votes by category", err)
	}

	if len(votes) == 0 {
		p.Action = ActionAdded
		return p, nil
	}

	p.votes = votes
	for _, v := range votes {
		if v.OptionID == option.ID {
			p.Action = ActionRemoved
			return p, nil
		}
	}

	p.Action = ActionReplaced
	p.PreviousOptionID = votes[0].OptionID
	return p, nil
}

func (e *Engine) add(ctx context.Context, voter identity.VoterIdentity, option *entity.VoteOption) error {
	filter := VoterFilter(voter)
	vote := &entity.Vote{
		VoterKind:      filter.Kind,
		VoterKey:       filter.Key,
		NetworkAddress: filter.NetworkAddress,
		FixtureID:      option.FixtureID,
		OptionID:       option.ID,
		Surface:        option.Surface,
	}

	if err := e.voteRepo.Create(ctx, vote); err != nil {
		return raceOr(err)
	}

	if err := e.voteOptionRepo.IncreaseVotes(ctx, option.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.InvalidOption, "Option %s no longer exists", option.ID)
		}

		return lockOr(err)
	}

	return nil
}

// replace moves the first vote of the category to the target option. Any other vote of the
// category is deleted, which only happens if the category of an option changed after voting.
func (e *Engine) replace(ctx context.Context, p *plan) error {
	first := p.votes[0]
	if err := e.voteRepo.UpdateOption(ctx, first.ID, p.OptionID); err != nil {
		return raceOr(err)
	}

	if err := e.voteOptionRepo.DecreaseVotes(ctx, first.OptionID); err != nil {
		return lockOr(err)
	}

	if err := e.voteOptionRepo.IncreaseVotes(ctx, p.OptionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.InvalidOption, "Option %s no longer exists", p.OptionID)
		}

		return lockOr(err)
	}

	return e.remove(ctx, p.votes[1:])
}

func (e *Engine) remove(ctx context.Context, votes []entity.Vote) error {
	for _, v := range votes {
		if err := e.voteRepo.DeleteByID(ctx, v.ID); err != nil {
			return raceOr(err)
		}

		if err := e.voteOptionRepo.DecreaseVotes(ctx, v.OptionID); err != nil {
			return lockOr(err)
		}
	}

	return nil
}

// VoterFilter is the repository filter selecting the votes of voter.
func VoterFilter(voter identity.VoterIdentity) repository.VoterFilter {
	return repository.VoterFilter{
		Kind:           voter.Kind,
		Key:            voter.Key(),
		NetworkAddress: voter.NetworkAddress,
	}
}

// raceOr turns a unique violation or a vanished row into errRaceLost.
func raceOr(err error) error {
	if repository.IsDuplicatedKey(err) || errors.Is(err, gorm.ErrRecordNotFound) || repository.IsDeadlock(err) {
		return errRaceLost
	}

	return err
}

// lockOr turns a deadlock or lock wait timeout on a counter row into errRaceLost. Two voters
// swapping between the same pair of options lock both counters in opposite order.
func lockOr(err error) error {
	if repository.IsDeadlock(err) {
		return errRaceLost
	}

	return err
}

type raceLostError struct {
	transition Transition
}

func (e *raceLostError) Error() string {
	return errRaceLost.Error()
}

func (e *raceLostError) Unwrap() error {
	return errRaceLost
}

func storageError(ctx context.Context, op string, err error) error {
	xcontext.Logger(ctx).Errorf("Cannot %s: %v", op, err)
	return errorx.New(errorx.StorageUnavailable, "Storage is unavailable, please retry")
}
