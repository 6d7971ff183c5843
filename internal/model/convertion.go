package model

import (
	"time"

	"github.com/matchpoll/backend/internal/entity"
)

const DefaultTimeLayout string = time.RFC3339Nano

func ConvertCategory(c *entity.Category) Category {
	if c == nil {
		return Category{}
	}

	return Category{
		Key:      c.Key,
		Label:    c.Label,
		Position: c.Position,
	}
}

func ConvertFixture(f *entity.Fixture) Fixture {
	if f == nil {
		return Fixture{}
	}

	kickoffAt := ""
	if f.KickoffAt.Valid {
		kickoffAt = f.KickoffAt.Time.Format(DefaultTimeLayout)
	}

	return Fixture{
		ID:          f.ID,
		HomeTeam:    f.HomeTeam,
		AwayTeam:    f.AwayTeam,
		Competition: f.Competition,
		KickoffAt:   kickoffAt,
		Status:      string(f.Status),
	}
}

func ConvertVoteOption(o *entity.VoteOption) VoteOption {
	if o == nil {
		return VoteOption{}
	}

	return VoteOption{
		ID:           o.ID,
		FixtureID:    o.FixtureID,
		Surface:      string(o.Surface),
		Label:        o.Label,
		Category:     o.CategoryKey,
		IsCustom:     o.IsCustom,
		DisplayOrder: o.DisplayOrder,
		VotesCount:   o.VotesCount,
	}
}
