package voting

import (
	"time"

	"github.com/matchpoll/backend/config"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/pkg/enum"
	"golang.org/x/exp/slices"
)

type Policy struct {
	// AllowChange permits Replace and Remove transitions. When false a cast vote is final.
	AllowChange        bool
	SurfaceAllowChange map[entity.Surface]bool

	// MultiSelect lets a voter hold several options of the same category. Casting a held option
	// removes it, Replace never happens.
	MultiSelect bool

	ClosedStatuses []entity.FixtureStatus
	StorageTimeout time.Duration
	MaxRaceRetries int
}

func DefaultPolicy() Policy {
	return Policy{
		AllowChange:    true,
		ClosedStatuses: []entity.FixtureStatus{entity.FixtureFinished},
		StorageTimeout: 3 * time.Second,
		MaxRaceRetries: 3,
	}
}

// PolicyFromConfigs ignores unknown surface and status names.
func PolicyFromConfigs(cfg config.VotingConfigs) Policy {
	policy := Policy{
		AllowChange:        cfg.AllowChange,
		SurfaceAllowChange: make(map[entity.Surface]bool),
		MultiSelect:        cfg.MultiSelect,
		StorageTimeout:     cfg.StorageTimeout,
		MaxRaceRetries:     cfg.MaxRaceRetries,
	}

	for name, allow := range cfg.SurfaceAllowChange {
		if surface, err := enum.ToEnum[entity.Surface](name); err == nil {
			policy.SurfaceAllowChange[surface] = allow
		}
	}

	for _, name := range cfg.ClosedStatuses {
		if status, err := enum.ToEnum[entity.FixtureStatus](name); err == nil {
			policy.ClosedStatuses = append(policy.ClosedStatuses, status)
		}
	}

	return policy
}

func (p Policy) CanChange(surface entity.Surface) bool {
	if allow, ok := p.SurfaceAllowChange[surface]; ok {
		return allow
	}

	return p.AllowChange
}

func (p Policy) IsClosed(status entity.FixtureStatus) bool {
	return slices.Contains(p.ClosedStatuses, status)
}
