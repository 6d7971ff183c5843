package entity

import (
	"time"

	"gorm.io/gorm"
)

const (
	CategoryMatchResult    = "match_result"
	CategoryMatchScore     = "match_score"
	CategoryGoalsThreshold = "goals_threshold"
	CategoryBothTeamsScore = "both_teams_score"
	CategoryFirstToScore   = "first_to_score"

	// CategoryOther can never be deleted. Options of a deleted category are moved here.
	CategoryOther = "other"
)

type Category struct {
	Key       string `gorm:"primarykey;size:64"`
	Label     string `gorm:"not null"`
	Position  int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// DefaultCategories are seeded on migration. Position defines the tally ordering.
var DefaultCategories = []Category{
	{Key: CategoryMatchResult, Label: "Match result", Position: 1},
	{Key: CategoryMatchScore, Label: "Correct score", Position: 2},
	{Key: CategoryGoalsThreshold, Label: "Total goals", Position: 3},
	{Key: CategoryBothTeamsScore, Label: "Both teams to score", Position: 4},
	{Key: CategoryFirstToScore, Label: "First to score", Position: 5},
	{Key: CategoryOther, Label: "Other", Position: 99},
}
