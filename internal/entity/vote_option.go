package entity

import "github.com/matchpoll/backend/pkg/enum"

type Surface string

var (
	SurfaceBasic    = enum.New(Surface("basic"), "basic")
	SurfaceDetailed = enum.New(Surface("detailed"), "detailed")

	_ = enum.New(SurfaceBasic, "homepage")
	_ = enum.New(SurfaceDetailed, "details")
)

// Surfaces lists every surface. Tallies are never shared between them.
var Surfaces = []Surface{SurfaceBasic, SurfaceDetailed}

type VoteOption struct {
	Base
	FixtureID    string  `gorm:"not null;index:idx_vote_options_fixture_surface"`
	Fixture      Fixture `gorm:"foreignKey:FixtureID"`
	Surface      Surface `gorm:"not null;size:16;index:idx_vote_options_fixture_surface"`
	Label        string  `gorm:"not null"`
	CategoryKey  string  `gorm:"not null;size:64;index"`
	IsCustom     bool    `gorm:"not null;default:false"`
	DisplayOrder int     `gorm:"not null;default:0"`
	VotesCount   int64   `gorm:"not null;default:0"`
}
