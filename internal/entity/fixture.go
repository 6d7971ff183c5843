package entity

import (
	"database/sql"
	"time"

	"github.com/matchpoll/backend/pkg/enum"
)

type FixtureStatus string

var (
	FixtureScheduled = enum.New(FixtureStatus("scheduled"), "scheduled")
	FixtureLive      = enum.New(FixtureStatus("live"), "live")
	FixturePaused    = enum.New(FixtureStatus("paused"), "paused")
	FixtureFinished  = enum.New(FixtureStatus("finished"), "finished")
	FixturePostponed = enum.New(FixtureStatus("postponed"), "postponed")
	FixtureCancelled = enum.New(FixtureStatus("cancelled"), "cancelled")
	FixtureAwarded   = enum.New(FixtureStatus("awarded"), "awarded")
)

type Fixture struct {
	ID          string `gorm:"primarykey;size:64"`
	HomeTeam    string `gorm:"not null"`
	AwayTeam    string `gorm:"not null"`
	Competition string
	KickoffAt   sql.NullTime
	Status      FixtureStatus `gorm:"not null;default:scheduled"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
