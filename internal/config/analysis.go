package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/slate/internal/supervisor"
)

const (
	EnvAnalysisConfidenceThreshold  = "SLATE_ANALYSIS_CONFIDENCE_THRESHOLD"
	EnvAnalysisHumanReviewThreshold = "SLATE_ANALYSIS_HUMAN_REVIEW_THRESHOLD"
	EnvAnalysisProviderTimeout      = "SLATE_ANALYSIS_PROVIDER_TIMEOUT"
	EnvAnalysisVerify               = "SLATE_ANALYSIS_VERIFY"
	EnvAnalysisVerifyTimeout        = "SLATE_ANALYSIS_VERIFY_TIMEOUT"
	EnvAnalysisRulesPolicy          = "SLATE_ANALYSIS_RULES_POLICY"
	EnvAnalysisWorkers              = "SLATE_ANALYSIS_WORKERS"
	EnvAnalysisEmotional            = "SLATE_ANALYSIS_EMOTIONAL"
)

// Verification modes accepted by AnalysisConfig.Verify.
const (
	VerifyOff       = "off"
	VerifyAutomated = "automated"
)

// Emotional analysis modes accepted by AnalysisConfig.Emotional.
const (
	EmotionalOff   = "off"
	EmotionalAgent = "agent"
)

// AnalysisConfig tunes the breakdown workflow: supervisor thresholds,
// collaborator and verification timeouts, the optional rule-policy file,
// the per-run worker limit (zero means one worker per CPU), and whether
// emotional tone is read by the agent.
type AnalysisConfig struct {
	ConfidenceThreshold  float64 `toml:"confidence_threshold"`
	HumanReviewThreshold float64 `toml:"human_review_threshold"`
	ProviderTimeout      string  `toml:"provider_timeout"`
	Verify               string  `toml:"verify"`
	VerifyTimeout        string  `toml:"verify_timeout"`
	RulesPolicy          string  `toml:"rules_policy"`
	Workers              int     `toml:"workers"`
	Emotional            string  `toml:"emotional"`
}

// Supervisor returns the supervisor settings carried by the config.
func (c *AnalysisConfig) Supervisor() supervisor.Settings {
	return supervisor.Settings{
		ConfidenceThreshold:  c.ConfidenceThreshold,
		HumanReviewThreshold: c.HumanReviewThreshold,
	}
}

// ProviderTimeoutDuration returns ProviderTimeout as a time.Duration.
func (c *AnalysisConfig) ProviderTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ProviderTimeout)
	return d
}

// VerifyTimeoutDuration returns VerifyTimeout as a time.Duration.
func (c *AnalysisConfig) VerifyTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.VerifyTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AnalysisConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AnalysisConfig) Merge(overlay *AnalysisConfig) {
	if overlay.ConfidenceThreshold != 0 {
		c.ConfidenceThreshold = overlay.ConfidenceThreshold
	}
	if overlay.HumanReviewThreshold != 0 {
		c.HumanReviewThreshold = overlay.HumanReviewThreshold
	}
	if overlay.ProviderTimeout != "" {
		c.ProviderTimeout = overlay.ProviderTimeout
	}
	if overlay.Verify != "" {
		c.Verify = overlay.Verify
	}
	if overlay.VerifyTimeout != "" {
		c.VerifyTimeout = overlay.VerifyTimeout
	}
	if overlay.RulesPolicy != "" {
		c.RulesPolicy = overlay.RulesPolicy
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.Emotional != "" {
		c.Emotional = overlay.Emotional
	}
}

func (c *AnalysisConfig) loadDefaults() {
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = supervisor.DefaultConfidenceThreshold
	}
	if c.HumanReviewThreshold == 0 {
		c.HumanReviewThreshold = supervisor.DefaultHumanReviewThreshold
	}
	if c.ProviderTimeout == "" {
		c.ProviderTimeout = "60s"
	}
	if c.Verify == "" {
		c.Verify = VerifyOff
	}
	if c.VerifyTimeout == "" {
		c.VerifyTimeout = "30s"
	}
	if c.Emotional == "" {
		c.Emotional = EmotionalOff
	}
}

func (c *AnalysisConfig) loadEnv() {
	parseFloat := func(env string, dst *float64) {
		if v := os.Getenv(env); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	parseFloat(EnvAnalysisConfidenceThreshold, &c.ConfidenceThreshold)
	parseFloat(EnvAnalysisHumanReviewThreshold, &c.HumanReviewThreshold)

	if v := os.Getenv(EnvAnalysisProviderTimeout); v != "" {
		c.ProviderTimeout = v
	}
	if v := os.Getenv(EnvAnalysisVerify); v != "" {
		c.Verify = v
	}
	if v := os.Getenv(EnvAnalysisVerifyTimeout); v != "" {
		c.VerifyTimeout = v
	}
	if v := os.Getenv(EnvAnalysisEmotional); v != "" {
		c.Emotional = v
	}
	if v := os.Getenv(EnvAnalysisRulesPolicy); v != "" {
		c.RulesPolicy = v
	}
	if v := os.Getenv(EnvAnalysisWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

func (c *AnalysisConfig) validate() error {
	settings := c.Supervisor()
	if err := settings.Finalize(); err != nil {
		return err
	}
	if _, err := time.ParseDuration(c.ProviderTimeout); err != nil {
		return fmt.Errorf("invalid provider_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.VerifyTimeout); err != nil {
		return fmt.Errorf("invalid verify_timeout: %w", err)
	}
	switch c.Verify {
	case VerifyOff, VerifyAutomated:
	default:
		return fmt.Errorf("invalid verify %q: want %s or %s", c.Verify, VerifyOff, VerifyAutomated)
	}
	switch c.Emotional {
	case EmotionalOff, EmotionalAgent:
	default:
		return fmt.Errorf("invalid emotional %q: want %s or %s", c.Emotional, EmotionalOff, EmotionalAgent)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers: %d", c.Workers)
	}
	if c.RulesPolicy != "" {
		if _, err := os.Stat(c.RulesPolicy); err != nil {
			return fmt.Errorf("rules_policy: %w", err)
		}
	}
	return nil
}
