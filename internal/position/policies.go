package position

import (
	"fmt"
	"math"

	"github.com/yourusername/cci-trader/internal/models"
)

// StagePolicy computes the capital added by an averaging entry into the given
// stage. Injecting the rule keeps the single state machine covering the
// strategy's capital-allocation variants.
type StagePolicy func(p *models.Position, stageIndex int, settings models.StrategySettings) float64

// DoublingPolicy doubles the committed capital at every stage: stage k adds
// the sum of stages 0..k-1, i.e. startAmount * 2^(k-1).
func DoublingPolicy(_ *models.Position, stageIndex int, settings models.StrategySettings) float64 {
	if stageIndex <= 0 {
		return settings.StartAmount
	}
	return settings.StartAmount * math.Pow(2, float64(stageIndex-1))
}

// FixedPolicy adds the stage-0 amount at every stage
func FixedPolicy(_ *models.Position, _ int, settings models.StrategySettings) float64 {
	return settings.StartAmount
}

// CurrentSizePolicy adds the position's current total size, net of any
// half-sell reductions
func CurrentSizePolicy(p *models.Position, _ int, _ models.StrategySettings) float64 {
	return p.TotalAmount
}

// PolicyFor resolves the configured policy name; an empty name selects the
// doubling default.
func PolicyFor(name models.StagePolicyName) (StagePolicy, error) {
	switch name {
	case models.StagePolicyDoubling, "":
		return DoublingPolicy, nil
	case models.StagePolicyFixed:
		return FixedPolicy, nil
	case models.StagePolicyCurrentSize:
		return CurrentSizePolicy, nil
	default:
		return nil, fmt.Errorf("unknown stage policy %q", name)
	}
}
