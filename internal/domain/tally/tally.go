// Package tally computes vote counts and percentages of a fixture surface through a read-through
// cache.
package tally

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/matchpoll/backend/internal/common"
	"github.com/matchpoll/backend/internal/domain/registry"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/pkg/xcontext"
	"github.com/matchpoll/backend/pkg/xredis"
)

type Entry struct {
	OptionID   string  `json:"option_id"`
	Label      string  `json:"label"`
	Category   string  `json:"category"`
	IsCustom   bool    `json:"is_custom"`
	VotesCount int64   `json:"votes_count"`
	Percentage float64 `json:"percentage"`
}

type Engine struct {
	registry    *registry.Registry
	redisClient xredis.Client
	ttl         time.Duration
}

func NewEngine(registry *registry.Registry, redisClient xredis.Client, ttl time.Duration) *Engine {
	return &Engine{
		registry:    registry,
		redisClient: redisClient,
		ttl:         ttl,
	}
}

// Tally returns the entries of a fixture surface in registry order. A cache failure is logged
// and the tally is computed from the counters.
//
// The computed tally is only written back when no Invalidate ran while computing it. An
// Invalidate landing between that check and the write still leaves a stale tally, for at most
// the cache TTL.
func (e *Engine) Tally(ctx context.Context, fixtureID string, surface entity.Surface) ([]Entry, error) {
	key := common.RedisKeyTally(fixtureID, string(surface))
	generation, genErr := e.generation(ctx, fixtureID)

	var entries []Entry
	err := e.redisClient.GetObj(ctx, key, &entries)
	if err == nil {
		common.PromCounters[common.TallyCacheTotal].WithLabelValues("hit").Inc()
		return entries, nil
	}

	if !xredis.IsNil(err) {
		xcontext.Logger(ctx).Warnf("Cannot read tally %s from cache: %v", key, err)
	}
	common.PromCounters[common.TallyCacheTotal].WithLabelValues("miss").Inc()

	options, err := e.registry.GetOptions(ctx, fixtureID, surface)
	if err != nil {
		return nil, err
	}

	entries = Compute(options)
	if genErr != nil {
		return entries, nil
	}

	if current, err := e.generation(ctx, fixtureID); err != nil || current != generation {
		xcontext.Logger(ctx).Debugf("Skip caching tally %s, counters changed while computing", key)
		return entries, nil
	}

	if err := e.redisClient.SetObj(ctx, key, entries, e.ttl); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot write tally %s to cache: %v", key, err)
	}

	return entries, nil
}

// generation is changed by every Invalidate of the fixture. A missing key is the empty
// generation.
func (e *Engine) generation(ctx context.Context, fixtureID string) (string, error) {
	generation, err := e.redisClient.Get(ctx, common.RedisKeyTallyGeneration(fixtureID))
	if err != nil {
		if xredis.IsNil(err) {
			return "", nil
		}

		return "", err
	}

	return generation, nil
}

// Invalidate drops the cached tallies of every surface of the fixture. It must be called after
// the transaction which changed the counters is committed.
func (e *Engine) Invalidate(ctx context.Context, fixtureID string) error {
	genErr := e.redisClient.Set(ctx, common.RedisKeyTallyGeneration(fixtureID), uuid.NewString(), e.ttl)

	keys := make([]string, 0, len(entity.Surfaces))
	for _, surface := range entity.Surfaces {
		keys = append(keys, common.RedisKeyTally(fixtureID, string(surface)))
	}

	if err := e.redisClient.Del(ctx, keys...); err != nil {
		return err
	}

	return genErr
}

// Compute keeps the order of options. Percentages are relative to the total of all options.
func Compute(options []entity.VoteOption) []Entry {
	var total int64
	for _, o := range options {
		total += o.VotesCount
	}

	entries := make([]Entry, 0, len(options))
	for _, o := range options {
		entries = append(entries, Entry{
			OptionID:   o.ID,
			Label:      o.Label,
			Category:   o.CategoryKey,
			IsCustom:   o.IsCustom,
			VotesCount: o.VotesCount,
			Percentage: Percentage(o.VotesCount, total),
		})
	}

	return entries
}

// Percentage is rounded to one decimal.
func Percentage(votes, total int64) float64 {
	if total <= 0 {
		return 0
	}

	return math.Round(float64(votes)/float64(total)*1000) / 10
}
