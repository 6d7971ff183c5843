package model

type Fixture struct {
	ID          string `json:"id"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	Competition string `json:"competition"`
	KickoffAt   string `json:"kickoff_at,omitempty"`
	Status      string `json:"status"`
}

type VoteOption struct {
	ID           string `json:"id"`
	FixtureID    string `json:"fixture_id"`
	Surface      string `json:"surface"`
	Label        string `json:"label"`
	Category     string `json:"category"`
	IsCustom     bool   `json:"is_custom"`
	DisplayOrder int    `json:"display_order"`
	VotesCount   int64  `json:"votes_count"`
}

type PublishFixtureRequest struct {
	ID          string `json:"id"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	Competition string `json:"competition"`
	KickoffAt   string `json:"kickoff_at"`
	Status      string `json:"status"`
}

type PublishFixtureResponse struct {
	Fixture        Fixture `json:"fixture"`
	CreatedOptions int     `json:"created_options"`
}

type UpdateFixtureStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type UpdateFixtureStatusResponse struct{}

type CreateOptionRequest struct {
	FixtureID string `json:"fixture_id"`
	Surface   string `json:"surface"`
	Label     string `json:"label"`
	Category  string `json:"category"`
}

type CreateOptionResponse struct {
	Option VoteOption `json:"option"`
}

type GetOptionsRequest struct {
	FixtureID string `form:"fixture_id" json:"fixture_id"`
	Surface   string `form:"surface" json:"surface"`
}

type GetOptionsResponse struct {
	Options []VoteOption `json:"options"`
}
