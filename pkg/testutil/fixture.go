package testutil

import (
	"context"

	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/internal/repository"
)

const (
	AdminUserID = "admin1"
	User1ID     = "user1"
	User2ID     = "user2"
)

var (
	Fixture1 = entity.Fixture{
		ID:          "fx_ars_che",
		HomeTeam:    "Arsenal",
		AwayTeam:    "Chelsea",
		Competition: "Premier League",
		Status:      entity.FixtureScheduled,
	}

	// Fixture2 is already finished, voting on it is closed.
	Fixture2 = entity.Fixture{
		ID:          "fx_liv_mci",
		HomeTeam:    "Liverpool",
		AwayTeam:    "Manchester City",
		Competition: "Premier League",
		Status:      entity.FixtureFinished,
	}

	Fixture3 = entity.Fixture{
		ID:          "fx_mun_tot",
		HomeTeam:    "Manchester United",
		AwayTeam:    "Tottenham",
		Competition: "Premier League",
		Status:      entity.FixtureLive,
	}

	Fixtures = []entity.Fixture{Fixture1, Fixture2, Fixture3}
)

var (
	Option1BasicHome = entity.VoteOption{
		Base:         entity.Base{ID: "opt_f1_b_home"},
		FixtureID:    Fixture1.ID,
		Surface:      entity.SurfaceBasic,
		Label:        "Arsenal win",
		CategoryKey:  entity.CategoryMatchResult,
		DisplayOrder: 1,
	}

	Option1BasicDraw = entity.VoteOption{
		Base:         entity.Base{ID: "opt_f1_b_draw"},
		FixtureID:    Fixture1.ID,
		Surface:      entity.SurfaceBasic,
		Label:        "Draw",
		CategoryKey:  entity.CategoryMatchResult,
		DisplayOrder: 2,
	}

	Option1BasicAway = entity.VoteOption{
		Base:         entity.Base{ID: "opt_f1_b_away"},
		FixtureID:    Fixture1.ID,
		Surface:      entity.SurfaceBasic,
		Label:        "Chelsea win",
		CategoryKey:  entity.CategoryMatchResult,
		DisplayOrder: 3,
	}

	Option1DetailedHome = entity.VoteOption{
		Base:         entity.Base{ID: "opt_f1_d_home"},
		FixtureID:    Fixture1.ID,
		Surface:      entity.SurfaceDetailed,
		Label:        "Arsenal win",
		CategoryKey:  entity.CategoryMatchResult,
		DisplayOrder: 1,
	}

	Option1DetailedOver = entity.VoteOption{
		Base:         entity.Base{ID: "opt_f1_d_over"},
		FixtureID:    Fixture1.ID,
		Surface:      entity.SurfaceDetailed,
		Label:        "Over 2.5 goals",
		CategoryKey:  entity.CategoryGoalsThreshold,
		DisplayOrder: 2,
	}

	Option1DetailedUnder = entity.VoteOption{
		Base:         entity.Base{ID: "opt_f1_d_under"},
		FixtureID:    Fixture1.ID,
		Surface:      entity.SurfaceDetailed,
		Label:        "Under 2.5 goals",
		CategoryKey:  entity.CategoryGoalsThreshold,
		DisplayOrder: 3,
	}

	Option1DetailedBTTS = entity.VoteOption{
		Base:         entity.Base{ID: "opt_f1_d_btts"},
		FixtureID:    Fixture1.ID,
		Surface:      entity.SurfaceDetailed,
		Label:        "Both teams score",
		CategoryKey:  entity.CategoryBothTeamsScore,
		DisplayOrder: 4,
	}

	Option1DetailedCustom = entity.VoteOption{
		Base:         entity.Base{ID: "opt_f1_d_custom"},
		FixtureID:    Fixture1.ID,
		Surface:      entity.SurfaceDetailed,
		Label:        "Arsenal win by 3+ goals",
		CategoryKey:  entity.CategoryMatchResult,
		IsCustom:     true,
		DisplayOrder: 5,
	}

	Option2BasicHome = entity.VoteOption{
		Base:         entity.Base{ID: "opt_f2_b_home"},
		FixtureID:    Fixture2.ID,
		Surface:      entity.SurfaceBasic,
		Label:        "Liverpool win",
		CategoryKey:  entity.CategoryMatchResult,
		DisplayOrder: 1,
	}

	Option3BasicHome = entity.VoteOption{
		Base:         entity.Base{ID: "opt_f3_b_home"},
		FixtureID:    Fixture3.ID,
		Surface:      entity.SurfaceBasic,
		Label:        "Manchester United win",
		CategoryKey:  entity.CategoryMatchResult,
		DisplayOrder: 1,
	}

	VoteOptions = []entity.VoteOption{
		Option1BasicHome,
		Option1BasicDraw,
		Option1BasicAway,
		Option1DetailedHome,
		Option1DetailedOver,
		Option1DetailedUnder,
		Option1DetailedBTTS,
		Option1DetailedCustom,
		Option2BasicHome,
		Option3BasicHome,
	}
)

// CreateFixtureDb inserts the sample fixtures and their options into the database of ctx.
func CreateFixtureDb(ctx context.Context) {
	InsertFixtures(ctx)
	InsertVoteOptions(ctx)
}

func InsertFixtures(ctx context.Context) {
	fixtureRepo := repository.NewFixtureRepository()
	for _, fixture := range Fixtures {
		f := fixture
		if err := fixtureRepo.Upsert(ctx, &f); err != nil {
			panic(err)
		}
	}
}

func InsertVoteOptions(ctx context.Context) {
	optionRepo := repository.NewVoteOptionRepository()
	for _, option := range VoteOptions {
		o := option
		if err := optionRepo.Create(ctx, &o); err != nil {
			panic(err)
		}
	}
}
