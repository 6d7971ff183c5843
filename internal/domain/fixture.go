package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matchpoll/backend/internal/common"
	"github.com/matchpoll/backend/internal/domain/registry"
	"github.com/matchpoll/backend/internal/domain/tally"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/internal/model"
	"github.com/matchpoll/backend/internal/repository"
	"github.com/matchpoll/backend/pkg/enum"
	"github.com/matchpoll/backend/pkg/errorx"
	"github.com/matchpoll/backend/pkg/xcontext"
	"gorm.io/gorm"
)

const maxOptionLabelLength = 128

type FixtureDomain interface {
	PublishFixture(context.Context, *model.PublishFixtureRequest) (*model.PublishFixtureResponse, error)
	UpdateFixtureStatus(context.Context, *model.UpdateFixtureStatusRequest) (*model.UpdateFixtureStatusResponse, error)
	CreateOption(context.Context, *model.CreateOptionRequest) (*model.CreateOptionResponse, error)
	GetOptions(context.Context, *model.GetOptionsRequest) (*model.GetOptionsResponse, error)
}

type fixtureDomain struct {
	fixtureRepo    repository.FixtureRepository
	voteOptionRepo repository.VoteOptionRepository
	categoryRepo   repository.CategoryRepository
	registry       *registry.Registry
	tallyEngine    *tally.Engine
	adminVerifier  *common.AdminVerifier
}

func NewFixtureDomain(
	fixtureRepo repository.FixtureRepository,
	voteOptionRepo repository.VoteOptionRepository,
	categoryRepo repository.CategoryRepository,
	registry *registry.Registry,
	tallyEngine *tally.Engine,
) *fixtureDomain {
	return &fixtureDomain{
		fixtureRepo:    fixtureRepo,
		voteOptionRepo: voteOptionRepo,
		categoryRepo:   categoryRepo,
		registry:       registry,
		tallyEngine:    tallyEngine,
		adminVerifier:  common.NewAdminVerifier(),
	}
}

// PublishFixture creates or updates the fixture. The default option set is generated the first
// time only, republishing never duplicates options.
func (d *fixtureDomain) PublishFixture(
	ctx context.Context, req *model.PublishFixtureRequest,
) (*model.PublishFixtureResponse, error) {
	if err := verifyAdmin(ctx, d.adminVerifier); err != nil {
		return nil, err
	}

	if req.ID == "" || req.HomeTeam == "" || req.AwayTeam == "" {
		return nil, errorx.New(errorx.BadRequest, "Require id, home_team and away_team")
	}

	fixture := &entity.Fixture{
		ID:          req.ID,
		HomeTeam:    req.HomeTeam,
		AwayTeam:    req.AwayTeam,
		Competition: req.Competition,
		Status:      entity.FixtureScheduled,
	}

	// A republish only overwrites the status and kickoff time it carries.
	var columns []string
	if req.Status != "" {
		status, err := enum.ToEnum[entity.FixtureStatus](req.Status)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Invalid fixture status: %v", err)
			return nil, errorx.New(errorx.BadRequest, "Invalid fixture status %q", req.Status)
		}
		fixture.Status = status
		columns = append(columns, "status")
	}

	if req.KickoffAt != "" {
		kickoffAt, err := time.Parse(time.RFC3339, req.KickoffAt)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid kickoff_at, expected RFC3339")
		}
		fixture.KickoffAt = sql.NullTime{Time: kickoffAt.UTC(), Valid: true}
		columns = append(columns, "kickoff_at")
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.fixtureRepo.Upsert(ctx, fixture, columns...); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot upsert fixture: %v", err)
		return nil, errorx.Unknown
	}

	fixture, err := d.fixtureRepo.GetByID(ctx, req.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get published fixture: %v", err)
		return nil, errorx.Unknown
	}

	count, err := d.voteOptionRepo.CountByFixture(ctx, fixture.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count options of fixture: %v", err)
		return nil, errorx.Unknown
	}

	var options []entity.VoteOption
	if count == 0 {
		options = DefaultOptions(fixture)
		if err := d.voteOptionRepo.CreateMany(ctx, options); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create default options: %v", err)
			return nil, errorx.Unknown
		}
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit fixture publishing: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.tallyEngine.Invalidate(ctx, fixture.ID); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate tally of fixture %s: %v", fixture.ID, err)
	}

	return &model.PublishFixtureResponse{
		Fixture:        model.ConvertFixture(fixture),
		CreatedOptions: len(options),
	}, nil
}

func (d *fixtureDomain) UpdateFixtureStatus(
	ctx context.Context, req *model.UpdateFixtureStatusRequest,
) (*model.UpdateFixtureStatusResponse, error) {
	if err := verifyAdmin(ctx, d.adminVerifier); err != nil {
		return nil, err
	}

	status, err := enum.ToEnum[entity.FixtureStatus](req.Status)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid fixture status: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid fixture status %q", req.Status)
	}

	if err := d.fixtureRepo.UpdateStatus(ctx, req.ID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found fixture")
		}

		xcontext.Logger(ctx).Errorf("Cannot update fixture status: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UpdateFixtureStatusResponse{}, nil
}

// CreateOption adds a custom option after the existing ones. Without an explicit category, the
// category is guessed from the label.
func (d *fixtureDomain) CreateOption(
	ctx context.Context, req *model.CreateOptionRequest,
) (*model.CreateOptionResponse, error) {
	if err := verifyAdmin(ctx, d.adminVerifier); err != nil {
		return nil, err
	}

	surface, err := parseSurface(req.Surface)
	if err != nil {
		return nil, err
	}

	label := strings.TrimSpace(req.Label)
	if label == "" || len(label) > maxOptionLabelLength {
		return nil, errorx.New(errorx.BadRequest,
			"Label must be between 1 and %d characters", maxOptionLabelLength)
	}

	if _, err := d.fixtureRepo.GetByID(ctx, req.FixtureID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found fixture")
		}

		xcontext.Logger(ctx).Errorf("Cannot get fixture: %v", err)
		return nil, errorx.Unknown
	}

	categoryKey := req.Category
	if categoryKey == "" {
		categoryKey = d.registry.DefaultCategoryFor(label)
	}

	if _, err := d.categoryRepo.GetByKey(ctx, categoryKey); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.BadRequest, "Unknown category %s", categoryKey)
		}

		xcontext.Logger(ctx).Errorf("Cannot get category: %v", err)
		return nil, errorx.Unknown
	}

	lastOrder, err := d.voteOptionRepo.GetLastDisplayOrder(ctx, req.FixtureID, surface)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get last display order: %v", err)
		return nil, errorx.Unknown
	}

	option := &entity.VoteOption{
		Base:         entity.Base{ID: uuid.NewString()},
		FixtureID:    req.FixtureID,
		Surface:      surface,
		Label:        label,
		CategoryKey:  categoryKey,
		IsCustom:     true,
		DisplayOrder: lastOrder + 1,
	}

	if err := d.voteOptionRepo.Create(ctx, option); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create option: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.tallyEngine.Invalidate(ctx, req.FixtureID); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate tally of fixture %s: %v", req.FixtureID, err)
	}

	return &model.CreateOptionResponse{Option: model.ConvertVoteOption(option)}, nil
}

func (d *fixtureDomain) GetOptions(
	ctx context.Context, req *model.GetOptionsRequest,
) (*model.GetOptionsResponse, error) {
	surface, err := parseSurface(req.Surface)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStorageTimeout(ctx)
	defer cancel()

	if _, err := d.fixtureRepo.GetByID(ctx, req.FixtureID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found fixture")
		}

		return nil, storageError(ctx, "get fixture", err)
	}

	options, err := d.registry.GetOptions(ctx, req.FixtureID, surface)
	if err != nil {
		return nil, storageError(ctx, "get options", err)
	}

	clientOptions := []model.VoteOption{}
	for _, o := range options {
		clientOptions = append(clientOptions, model.ConvertVoteOption(&o))
	}

	return &model.GetOptionsResponse{Options: clientOptions}, nil
}

var defaultScores = []string{"1-0", "2-0", "2-1", "0-0", "1-1", "2-2", "0-1", "0-2", "1-2"}

// DefaultOptions is the option set generated when a fixture is published.
func DefaultOptions(fixture *entity.Fixture) []entity.VoteOption {
	type draft struct {
		label    string
		category string
	}

	matchResult := []draft{
		{fmt.Sprintf("%s win", fixture.HomeTeam), entity.CategoryMatchResult},
		{"Draw", entity.CategoryMatchResult},
		{fmt.Sprintf("%s win", fixture.AwayTeam), entity.CategoryMatchResult},
	}

	detailed := append([]draft{}, matchResult...)
	detailed = append(detailed,
		draft{"Over 2.5 goals", entity.CategoryGoalsThreshold},
		draft{"Under 2.5 goals", entity.CategoryGoalsThreshold},
		draft{"Both teams score - Yes", entity.CategoryBothTeamsScore},
		draft{"Both teams score - No", entity.CategoryBothTeamsScore},
		draft{fmt.Sprintf("%s scores first", fixture.HomeTeam), entity.CategoryFirstToScore},
		draft{fmt.Sprintf("%s scores first", fixture.AwayTeam), entity.CategoryFirstToScore},
	)
	for _, score := range defaultScores {
		detailed = append(detailed, draft{score, entity.CategoryMatchScore})
	}

	options := []entity.VoteOption{}
	for _, set := range []struct {
		surface entity.Surface
		drafts  []draft
	}{
		{entity.SurfaceBasic, matchResult},
		{entity.SurfaceDetailed, detailed},
	} {
		for i, d := range set.drafts {
			options = append(options, entity.VoteOption{
				Base:         entity.Base{ID: uuid.NewString()},
				FixtureID:    fixture.ID,
				Surface:      set.surface,
				Label:        d.label,
				CategoryKey:  d.category,
				DisplayOrder: i + 1,
			})
		}
	}

	return options
}
