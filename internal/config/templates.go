// Package config loads YAML phase rule templates: prop-firm presets that
// provisioning applies to new phase accounts and what-if runs override
// onto existing ones.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kalabhaftu/propeval/internal/domain"
)

// PhaseRules is one phase's rule set inside a template.
type PhaseRules struct {
	Name                 string  `yaml:"name"`
	DailyDrawdownPercent float64 `yaml:"daily_drawdown_percent"`
	MaxDrawdownPercent   float64 `yaml:"max_drawdown_percent"`
	MaxDrawdownType      string  `yaml:"max_drawdown_type"` // "static" or "trailing"
	ProfitTargetPercent  float64 `yaml:"profit_target_percent"`
	MinTradingDays       int     `yaml:"min_trading_days"`
	TimeLimitDays        *int    `yaml:"time_limit_days,omitempty"` // absent means unlimited
}

// PayoutRules is the funded-phase payout policy inside a template.
type PayoutRules struct {
	MinDaysToFirstPayout  int     `yaml:"min_days_to_first_payout"`
	PayoutCycleDays       int     `yaml:"payout_cycle_days"`
	MinProfitForPayout    float64 `yaml:"min_profit_for_payout"`
	ProfitSplitPercent    float64 `yaml:"profit_split_percent"`
	ResetOnPayout         bool    `yaml:"reset_on_payout"`
	FundedResetBalance    float64 `yaml:"funded_reset_balance,omitempty"`
	ReduceBalanceByPayout bool    `yaml:"reduce_balance_by_payout"`
}

// Template is a complete prop-firm evaluation program: an ordered list of
// phases ending in the funded phase, plus the payout policy.
type Template struct {
	Name        string       `yaml:"name"`
	AccountSize float64      `yaml:"account_size"`
	Timezone    string       `yaml:"timezone"`
	Phases      []PhaseRules `yaml:"phases"`
	Payout      *PayoutRules `yaml:"payout,omitempty"`
}

// LoadTemplate reads and validates a template from a YAML file.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template file: %w", err)
	}
	return ParseTemplate(data)
}

// ParseTemplate parses and validates template YAML.
func ParseTemplate(data []byte) (*Template, error) {
	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse template yaml: %w", err)
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Validate checks the template for values the engine cannot evaluate.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template missing name")
	}
	if t.AccountSize <= 0 {
		return fmt.Errorf("template %s: account_size must be positive", t.Name)
	}
	if len(t.Phases) == 0 {
		return fmt.Errorf("template %s: at least one phase required", t.Name)
	}

	for i, phase := range t.Phases {
		if phase.Name == "" {
			return fmt.Errorf("template %s: phase %d missing name", t.Name, i)
		}
		if phase.DailyDrawdownPercent <= 0 || phase.DailyDrawdownPercent > 100 {
			return fmt.Errorf("template %s: phase %s: daily_drawdown_percent out of range (0, 100]", t.Name, phase.Name)
		}
		if phase.MaxDrawdownPercent <= 0 || phase.MaxDrawdownPercent > 100 {
			return fmt.Errorf("template %s: phase %s: max_drawdown_percent out of range (0, 100]", t.Name, phase.Name)
		}
		switch domain.DrawdownType(phase.MaxDrawdownType) {
		case domain.DrawdownStatic, domain.DrawdownTrailing:
		default:
			return fmt.Errorf("template %s: phase %s: max_drawdown_type must be static or trailing", t.Name, phase.Name)
		}
		if phase.ProfitTargetPercent < 0 {
			return fmt.Errorf("template %s: phase %s: profit_target_percent cannot be negative", t.Name, phase.Name)
		}
		if phase.MinTradingDays < 0 {
			return fmt.Errorf("template %s: phase %s: min_trading_days cannot be negative", t.Name, phase.Name)
		}
		if phase.TimeLimitDays != nil && *phase.TimeLimitDays <= 0 {
			return fmt.Errorf("template %s: phase %s: time_limit_days must be positive when set", t.Name, phase.Name)
		}
	}

	if t.Payout != nil {
		if t.Payout.ProfitSplitPercent < 0 || t.Payout.ProfitSplitPercent > 100 {
			return fmt.Errorf("template %s: payout profit_split_percent out of range [0, 100]", t.Name)
		}
		if t.Payout.MinDaysToFirstPayout < 0 || t.Payout.PayoutCycleDays < 0 {
			return fmt.Errorf("template %s: payout day counts cannot be negative", t.Name)
		}
		if t.Payout.ResetOnPayout && t.Payout.FundedResetBalance <= 0 {
			return fmt.Errorf("template %s: reset_on_payout requires funded_reset_balance", t.Name)
		}
	}

	return nil
}

// Phase returns the rules of a named phase, or nil if absent.
func (t *Template) Phase(name string) *PhaseRules {
	for i := range t.Phases {
		if t.Phases[i].Name == name {
			return &t.Phases[i]
		}
	}
	return nil
}

// ApplyPhase copies a phase's rules onto an existing phase account,
// preserving the account's identity, timezone and lifecycle fields.
func (t *Template) ApplyPhase(rules *PhaseRules, p *domain.PhaseAccount) {
	p.AccountSize = t.AccountSize
	p.DailyDrawdownPercent = rules.DailyDrawdownPercent
	p.MaxDrawdownPercent = rules.MaxDrawdownPercent
	p.MaxDrawdownType = domain.DrawdownType(rules.MaxDrawdownType)
	p.ProfitTargetPercent = rules.ProfitTargetPercent
	p.MinTradingDays = rules.MinTradingDays
	p.TimeLimitDays = rules.TimeLimitDays
}

// PayoutPolicy converts the template's payout rules to the domain policy.
// Returns nil when the template has no payout section.
func (t *Template) PayoutPolicy() *domain.PayoutPolicy {
	if t.Payout == nil {
		return nil
	}
	return &domain.PayoutPolicy{
		MinDaysToFirstPayout:  t.Payout.MinDaysToFirstPayout,
		PayoutCycleDays:       t.Payout.PayoutCycleDays,
		MinProfitForPayout:    t.Payout.MinProfitForPayout,
		ProfitSplitPercent:    t.Payout.ProfitSplitPercent,
		ResetOnPayout:         t.Payout.ResetOnPayout,
		FundedResetBalance:    t.Payout.FundedResetBalance,
		ReduceBalanceByPayout: t.Payout.ReduceBalanceByPayout,
	}
}
