package model

type TallyEntry struct {
	OptionID   string  `json:"option_id"`
	Label      string  `json:"label"`
	Category   string  `json:"category"`
	IsCustom   bool    `json:"is_custom"`
	VotesCount int64   `json:"votes_count"`
	Percentage float64 `json:"percentage"`
}

type CastVoteRequest struct {
	FixtureID string `json:"fixture_id"`
	OptionID  string `json:"option_id"`
	Surface   string `json:"surface"`
}

type CastVoteResponse struct {
	Action           string       `json:"action"`
	Category         string       `json:"category"`
	PreviousOptionID string       `json:"previous_option_id,omitempty"`
	Tally            []TallyEntry `json:"tally"`
}

type GetTallyRequest struct {
	FixtureID string `form:"fixture_id" json:"fixture_id"`
	Surface   string `form:"surface" json:"surface"`
}

type GetTallyResponse struct {
	Entries []TallyEntry `json:"entries"`
}

type GetVoterSelectionRequest struct {
	FixtureID string `form:"fixture_id" json:"fixture_id"`
	Surface   string `form:"surface" json:"surface"`
}

type GetVoterSelectionResponse struct {
	// Selections maps a category key to the selected option. In multi-select mode only the
	// earliest selection of each category is kept here, OptionIDs holds all of them.
	Selections map[string]string `json:"selections"`
	OptionIDs  []string          `json:"option_ids"`
}
