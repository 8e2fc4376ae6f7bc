package models

import (
	"fmt"
	"strings"
)

// StagePolicyName selects the per-stage capital rule used when averaging down
type StagePolicyName string

const (
	// StagePolicyDoubling adds the cumulative capital committed so far,
	// doubling the position at every stage
	StagePolicyDoubling StagePolicyName = "doubling"
	// StagePolicyFixed adds the stage-0 amount at every stage
	StagePolicyFixed StagePolicyName = "fixed"
	// StagePolicyCurrentSize adds the current total position size
	StagePolicyCurrentSize StagePolicyName = "current_size"
)

// StrategySettings is the fully-populated configuration for one backtest or
// monitoring run. It is validated at the boundary; the engine assumes a valid
// value throughout.
type StrategySettings struct {
	Symbol             string          `mapstructure:"symbol" json:"symbol" validate:"required"`
	Timeframe          Timeframe       `mapstructure:"timeframe" json:"timeframe" validate:"required"`
	SeedMoney          float64         `mapstructure:"seed_money" json:"seed_money" validate:"required,gt=0"`
	StartAmount        float64         `mapstructure:"start_amount" json:"start_amount" validate:"required,gt=0"`
	CCILength          int             `mapstructure:"cci_length" json:"cci_length" validate:"required,gt=0"`
	EntryThreshold     float64         `mapstructure:"entry_threshold" json:"entry_threshold" validate:"required,gt=0"`
	ExitThreshold      float64         `mapstructure:"exit_threshold" json:"exit_threshold" validate:"required,gt=0"`
	ProfitTarget       float64         `mapstructure:"profit_target" json:"profit_target" validate:"required,gt=0"`
	HalfSellProfitRate float64         `mapstructure:"half_sell_profit_rate" json:"half_sell_profit_rate" validate:"required,gt=0"`
	Stage1Loss         float64         `mapstructure:"stage1_loss" json:"stage1_loss" validate:"required,gt=0"`
	Stage2Loss         float64         `mapstructure:"stage2_loss" json:"stage2_loss" validate:"required,gt=0"`
	Stage3Loss         float64         `mapstructure:"stage3_loss" json:"stage3_loss" validate:"required,gt=0"`
	Stage4Loss         float64         `mapstructure:"stage4_loss" json:"stage4_loss" validate:"required,gt=0"`
	StopLossPercent    float64         `mapstructure:"stop_loss_percent" json:"stop_loss_percent" validate:"required,gt=0"`
	FeeRate            float64         `mapstructure:"fee_rate" json:"fee_rate" validate:"gte=0"`
	StagePolicy        StagePolicyName `mapstructure:"stage_policy" json:"stage_policy"`
}

// DefaultStrategySettings returns settings matching the documented defaults
func DefaultStrategySettings(symbol string, timeframe Timeframe) StrategySettings {
	return StrategySettings{
		Symbol:             symbol,
		Timeframe:          timeframe,
		SeedMoney:          10000,
		StartAmount:        2000, // 20% of seed
		CCILength:          20,
		EntryThreshold:     110,
		ExitThreshold:      100,
		ProfitTarget:       3.0,
		HalfSellProfitRate: 1.5,
		Stage1Loss:         2.0,
		Stage2Loss:         4.0,
		Stage3Loss:         6.0,
		Stage4Loss:         8.0,
		StopLossPercent:    10.0,
		FeeRate:            0.05,
		StagePolicy:        StagePolicyDoubling,
	}
}

// StageLoss returns the loss threshold that triggers entry into the given
// stage (1..4)
func (s StrategySettings) StageLoss(stage int) float64 {
	switch stage {
	case 1:
		return s.Stage1Loss
	case 2:
		return s.Stage2Loss
	case 3:
		return s.Stage3Loss
	case 4:
		return s.Stage4Loss
	default:
		return 0
	}
}

// Validate checks every invariant and reports all violations at once.
// Settings are never silently clamped.
func (s StrategySettings) Validate() error {
	var violations []string

	if s.Symbol == "" {
		violations = append(violations, "symbol is required")
	}
	if !s.Timeframe.Valid() {
		violations = append(violations, fmt.Sprintf("timeframe %q is not one of 15m, 1h, 4h, 1d, 1w", s.Timeframe))
	}
	if s.SeedMoney <= 0 {
		violations = append(violations, "seed_money must be > 0")
	}
	if s.StartAmount <= 0 {
		violations = append(violations, "start_amount must be > 0")
	}
	if s.StartAmount > s.SeedMoney {
		violations = append(violations, "start_amount cannot exceed seed_money")
	}
	if s.CCILength <= 0 {
		violations = append(violations, "cci_length must be > 0")
	}
	if s.EntryThreshold <= 0 {
		violations = append(violations, "entry_threshold must be > 0")
	}
	if s.ExitThreshold <= 0 {
		violations = append(violations, "exit_threshold must be > 0")
	}
	if s.ExitThreshold >= s.EntryThreshold {
		violations = append(violations, "exit_threshold must be less than entry_threshold")
	}
	if s.ProfitTarget <= 0 {
		violations = append(violations, "profit_target must be > 0")
	}
	if s.HalfSellProfitRate <= 0 {
		violations = append(violations, "half_sell_profit_rate must be > 0")
	}
	if s.HalfSellProfitRate >= s.ProfitTarget {
		violations = append(violations, "half_sell_profit_rate must be less than profit_target")
	}
	stageLosses := []float64{s.Stage1Loss, s.Stage2Loss, s.Stage3Loss, s.Stage4Loss}
	for i, loss := range stageLosses {
		if loss <= 0 {
			violations = append(violations, fmt.Sprintf("stage%d_loss must be > 0", i+1))
		}
		if i > 0 && loss <= stageLosses[i-1] {
			violations = append(violations, fmt.Sprintf("stage%d_loss must be greater than stage%d_loss", i+1, i))
		}
	}
	if s.StopLossPercent <= 0 {
		violations = append(violations, "stop_loss_percent must be > 0")
	}
	if s.FeeRate < 0 {
		violations = append(violations, "fee_rate cannot be negative")
	}
	switch s.StagePolicy {
	case StagePolicyDoubling, StagePolicyFixed, StagePolicyCurrentSize, "":
	default:
		violations = append(violations, fmt.Sprintf("stage_policy %q is not one of doubling, fixed, current_size", s.StagePolicy))
	}

	if len(violations) > 0 {
		return fmt.Errorf("%w:\n- %s", ErrInvalidSettings, strings.Join(violations, "\n- "))
	}
	return nil
}
