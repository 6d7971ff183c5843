package domain

import (
	"context"
	"errors"

	"github.com/matchpoll/backend/internal/domain/identity"
	"github.com/matchpoll/backend/internal/domain/tally"
	"github.com/matchpoll/backend/internal/domain/voting"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/internal/model"
	"github.com/matchpoll/backend/internal/repository"
	"github.com/matchpoll/backend/pkg/errorx"
	"github.com/matchpoll/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type VoteDomain interface {
	CastVote(context.Context, *model.CastVoteRequest) (*model.CastVoteResponse, error)
	GetTally(context.Context, *model.GetTallyRequest) (*model.GetTallyResponse, error)
	GetVoterSelection(context.Context, *model.GetVoterSelectionRequest) (*model.GetVoterSelectionResponse, error)
}

type voteDomain struct {
	fixtureRepo  repository.FixtureRepository
	voteRepo     repository.VoteRepository
	votingEngine *voting.Engine
	tallyEngine  *tally.Engine
}

func NewVoteDomain(
	fixtureRepo repository.FixtureRepository,
	voteRepo repository.VoteRepository,
	votingEngine *voting.Engine,
	tallyEngine *tally.Engine,
) *voteDomain {
	return &voteDomain{
		fixtureRepo:  fixtureRepo,
		voteRepo:     voteRepo,
		votingEngine: votingEngine,
		tallyEngine:  tallyEngine,
	}
}

func (d *voteDomain) CastVote(
	ctx context.Context, req *model.CastVoteRequest,
) (*model.CastVoteResponse, error) {
	if req.FixtureID == "" || req.OptionID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require fixture_id and option_id")
	}

	surface, err := parseSurface(req.Surface)
	if err != nil {
		return nil, err
	}

	voter, err := identity.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	transition, err := d.votingEngine.Cast(ctx, voter, req.FixtureID, req.OptionID, surface)
	if err != nil {
		return nil, err
	}

	// The transaction is committed at this point, a failure here only delays freshness until
	// the cache entry expires.
	if err := d.tallyEngine.Invalidate(ctx, req.FixtureID); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate tally of fixture %s: %v", req.FixtureID, err)
	}

	resp := &model.CastVoteResponse{
		Action:           string(transition.Action),
		Category:         transition.Category,
		PreviousOptionID: transition.PreviousOptionID,
		Tally:            []model.TallyEntry{},
	}

	tctx, cancel := withStorageTimeout(ctx)
	defer cancel()

	entries, err := d.tallyEngine.Tally(tctx, req.FixtureID, surface)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get tally after vote on fixture %s: %v", req.FixtureID, err)
		return resp, nil
	}

	resp.Tally = convertTally(entries)
	return resp, nil
}

func (d *voteDomain) GetTally(
	ctx context.Context, req *model.GetTallyRequest,
) (*model.GetTallyResponse, error) {
	surface, err := parseSurface(req.Surface)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStorageTimeout(ctx)
	defer cancel()

	if err := d.checkFixture(ctx, req.FixtureID); err != nil {
		return nil, err
	}

	entries, err := d.tallyEngine.Tally(ctx, req.FixtureID, surface)
	if err != nil {
		return nil, storageError(ctx, "get tally", err)
	}

	return &model.GetTallyResponse{Entries: convertTally(entries)}, nil
}

func (d *voteDomain) GetVoterSelection(
	ctx context.Context, req *model.GetVoterSelectionRequest,
) (*model.GetVoterSelectionResponse, error) {
	surface, err := parseSurface(req.Surface)
	if err != nil {
		return nil, err
	}

	voter, err := identity.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	resp := &model.GetVoterSelectionResponse{
		Selections: map[string]string{},
		OptionIDs:  []string{},
	}

	// Anonymous voters cannot hold detailed votes.
	if surface == entity.SurfaceDetailed && !voter.IsAuthenticated() {
		return resp, nil
	}

	ctx, cancel := withStorageTimeout(ctx)
	defer cancel()

	if err := d.checkFixture(ctx, req.FixtureID); err != nil {
		return nil, err
	}

	selections, err := d.voteRepo.GetSelections(ctx, voting.VoterFilter(voter), req.FixtureID, surface)
	if err != nil {
		return nil, storageError(ctx, "get voter selections", err)
	}

	for _, s := range selections {
		if _, ok := resp.Selections[s.CategoryKey]; !ok {
			resp.Selections[s.CategoryKey] = s.OptionID
		}
		resp.OptionIDs = append(resp.OptionIDs, s.OptionID)
	}

	return resp, nil
}

func (d *voteDomain) checkFixture(ctx context.Context, fixtureID string) error {
	if fixtureID == "" {
		return errorx.New(errorx.BadRequest, "Require fixture_id")
	}

	if _, err := d.fixtureRepo.GetByID(ctx, fixtureID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.NotFound, "Not found fixture")
		}

		return storageError(ctx, "get fixture", err)
	}

	return nil
}

func convertTally(entries []tally.Entry) []model.TallyEntry {
	result := make([]model.TallyEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, model.TallyEntry{
			OptionID:   e.OptionID,
			Label:      e.Label,
			Category:   e.Category,
			IsCustom:   e.IsCustom,
			VotesCount: e.VotesCount,
			Percentage: e.Percentage,
		})
	}

	return result
}
