package common

import (
	"fmt"
)

func RedisKeyTally(fixtureID, surface string) string {
	return fmt.Sprintf("tally:%s:%s", fixtureID, surface)
}

func RedisKeyTallyGeneration(fixtureID string) string {
	return fmt.Sprintf("tally_gen:%s", fixtureID)
}
