package entity

import "github.com/matchpoll/backend/pkg/enum"

type VoterKind string

var (
	VoterUser      = enum.New(VoterKind("user"), "user")
	VoterAnonymous = enum.New(VoterKind("anonymous"), "anonymous")
)

// Vote is hard-deleted on toggle-off so that the unique index never sees a ghost row.
//
// The voter columns are NOT NULL (an authenticated voter has an empty NetworkAddress) because
// NULLs never collide in a unique index.
type Vote struct {
	SnowFlakeBase
	VoterKind      VoterKind `gorm:"not null;size:16;uniqueIndex:idx_votes_voter_option;index:idx_votes_voter_fixture"`
	VoterKey       string    `gorm:"not null;size:128;uniqueIndex:idx_votes_voter_option;index:idx_votes_voter_fixture"`
	NetworkAddress string    `gorm:"not null;size:64;uniqueIndex:idx_votes_voter_option;index:idx_votes_voter_fixture"`
	FixtureID      string    `gorm:"not null;size:64;uniqueIndex:idx_votes_voter_option;index:idx_votes_voter_fixture"`
	OptionID       string    `gorm:"not null;size:64;uniqueIndex:idx_votes_voter_option;index"`
	Surface        Surface   `gorm:"not null;size:16;uniqueIndex:idx_votes_voter_option;index:idx_votes_voter_fixture"`
}
