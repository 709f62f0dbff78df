package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Screening modes.
const (
	ModeIncome = "income"
	ModeValue  = "value"
)

// UniverseConfig holds the coarse eligibility thresholds.
type UniverseConfig struct {
	MinLiquidity    float64  `yaml:"min_liquidity"`
	MinYield        float64  `yaml:"min_yield"`
	FundMaxPB       float64  `yaml:"fund_max_pb"`
	MaxDebtToEquity float64  `yaml:"max_debt_to_equity"`
	Exclusions      []string `yaml:"exclusions"`
	SafetyFilter    bool     `yaml:"safety_filter"`
}

// HistoryConfig controls the enrichment stage.
type HistoryConfig struct {
	Lookback     string `yaml:"lookback"`
	MomentumBars int    `yaml:"momentum_bars"`
	// RebalanceBars is the momentum window used when rebalancing a portfolio.
	RebalanceBars int `yaml:"rebalance_momentum_bars"`
	Parallelism   int `yaml:"parallelism"`
}

// ScoringConfig holds rule weights and thresholds. Weights are keyed by rule name;
// a rule whose weight is zero never fires.
type ScoringConfig struct {
	Weights          map[string]float64 `yaml:"weights"`
	MinYield         float64            `yaml:"min_yield"`
	FundSectors      []string           `yaml:"fund_sectors"`
	ResilientSectors []string           `yaml:"resilient_sectors"`
	ExceptionalScore float64            `yaml:"exceptional_score"`
	StrongScore      float64            `yaml:"strong_score"`
	MinScore         float64            `yaml:"min_score"`
	PennyPrice       float64            `yaml:"penny_price"`
}

// AllocationConfig holds bucket targets and purchase-loop parameters.
type AllocationConfig struct {
	IncomeTarget      float64 `yaml:"income_target"`
	GrowthTarget      float64 `yaml:"growth_target"`
	QualifyScore      float64 `yaml:"qualify_score"`
	BalancedThreshold float64 `yaml:"balanced_threshold"`
	BalancedSlots     int     `yaml:"balanced_slots"`
	Alternatives      int     `yaml:"alternatives"`
}

// ProvidersConfig configures every external call.
type ProvidersConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
	Proxy       string        `yaml:"proxy"`
	UserAgent   string        `yaml:"user_agent"`
	EquitiesURL string        `yaml:"equities_url"`
	FundsURL    string        `yaml:"funds_url"`
	Offline     bool          `yaml:"offline"`
}

// Config holds all application configuration.
type Config struct {
	Mode       string           `yaml:"mode"`
	Universe   UniverseConfig   `yaml:"universe"`
	History    HistoryConfig    `yaml:"history"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Allocation AllocationConfig `yaml:"allocation"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Cache      struct {
		SQLitePath string        `yaml:"sqlite_path"`
		TTL        time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Schedule struct {
		ScreenCron string `yaml:"screen_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies .env and environment overrides,
// defaults and the mode preset. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(cfg)
	ApplyMode(cfg)
	return cfg, nil
}

// Default returns the configuration used when no file or environment is present.
func Default() *Config {
	cfg := &Config{}
	ApplyMode(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("B3_MODE"); v != "" {
		cfg.Mode = strings.ToLower(v)
	}
	if v, ok := envFloat("B3_MIN_LIQUIDITY"); ok {
		cfg.Universe.MinLiquidity = v
	}
	if v, ok := envFloat("B3_MIN_YIELD"); ok {
		cfg.Universe.MinYield = v
		cfg.Scoring.MinYield = v
	}
	if v := os.Getenv("B3_CACHE_PATH"); v != "" {
		cfg.Cache.SQLitePath = v
	}
	if v := os.Getenv("B3_SCREEN_CRON"); v != "" {
		cfg.Schedule.ScreenCron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Providers.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ApplyMode fills every unset field with the preset of cfg.Mode.
// Values already set (from YAML or env) win over the preset.
func ApplyMode(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModeIncome
	}
	value := cfg.Mode == ModeValue

	u := &cfg.Universe
	if u.MinLiquidity == 0 {
		u.MinLiquidity = 200_000
		if value {
			u.MinLiquidity = 1_000_000
		}
	}
	if u.MinYield == 0 {
		u.MinYield = 0.06
	}
	if u.FundMaxPB == 0 {
		u.FundMaxPB = 1.3
	}
	if u.MaxDebtToEquity == 0 {
		u.MaxDebtToEquity = 3.5
	}
	if value {
		if u.Exclusions == nil {
			u.Exclusions = []string{"AZUL4", "GOLL4", "CVCB3", "IRBR3", "OIBR3", "AMER3"}
		}
		u.SafetyFilter = true
	}

	h := &cfg.History
	if h.Lookback == "" {
		h.Lookback = "6mo"
		if value {
			h.Lookback = "1y"
		}
	}
	if h.RebalanceBars == 0 {
		h.RebalanceBars = 126
	}
	if h.Parallelism == 0 {
		h.Parallelism = 8
	}

	s := &cfg.Scoring
	weights := DefaultWeights()
	if value {
		weights[RuleGraham] = 2.25
		weights[RuleQualityROE] = 1.0
		weights[RuleGrowth] = 1.0
		weights[RuleLowPE] = 1.0
	}
	for name, w := range s.Weights {
		weights[name] = w
	}
	s.Weights = weights
	if s.MinYield == 0 {
		s.MinYield = u.MinYield
	}
	if s.FundSectors == nil {
		s.FundSectors = []string{"Recebíveis", "Papel", "Logística", "Híbrido", "Shoppings"}
	}
	if s.ResilientSectors == nil {
		s.ResilientSectors = []string{"Bank", "Electric", "Water", "Insurance", "Telecom", "Financial", "Utility", "Real Estate", "Industrials"}
	}
	if s.ExceptionalScore == 0 {
		s.ExceptionalScore = 4.5
	}
	if s.StrongScore == 0 {
		s.StrongScore = 3.0
	}
	if s.MinScore == 0 {
		s.MinScore = 2.0
	}
	if s.PennyPrice == 0 {
		s.PennyPrice = 2.0
	}

	a := &cfg.Allocation
	if a.IncomeTarget == 0 && a.GrowthTarget == 0 {
		a.IncomeTarget = 0.80
		a.GrowthTarget = 0.20
	}
	if a.QualifyScore == 0 {
		a.QualifyScore = 2.0
	}
	if a.BalancedThreshold == 0 {
		a.BalancedThreshold = 1000
	}
	if a.BalancedSlots == 0 {
		a.BalancedSlots = 15
	}
	if a.Alternatives == 0 {
		a.Alternatives = 10
	}

	p := &cfg.Providers
	if p.Timeout == 0 {
		p.Timeout = 30 * time.Second
	}
	if p.Retries == 0 {
		p.Retries = 2
	}
	if p.UserAgent == "" {
		p.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	}
	if p.EquitiesURL == "" {
		p.EquitiesURL = "https://www.fundamentus.com.br/resultado.php"
	}
	if p.FundsURL == "" {
		p.FundsURL = "https://www.fundamentus.com.br/fii_resultado.php"
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 6 * time.Hour
	}
	if cfg.Schedule.ScreenCron == "" {
		cfg.Schedule.ScreenCron = "0 30 18 * * 1-5"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks that thresholds are coherent.
func (c *Config) Validate() error {
	if c.Mode != ModeIncome && c.Mode != ModeValue {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeIncome, ModeValue, c.Mode)
	}
	if c.Universe.MinLiquidity < 0 || c.Universe.MinYield < 0 {
		return fmt.Errorf("universe thresholds must be non-negative")
	}
	if c.Universe.FundMaxPB <= 0 {
		return fmt.Errorf("universe.fund_max_pb must be positive")
	}
	switch c.History.Lookback {
	case "1mo", "3mo", "6mo", "1y", "2y":
	default:
		return fmt.Errorf("history.lookback %q is not supported", c.History.Lookback)
	}
	if c.History.MomentumBars < 0 || c.History.RebalanceBars < 0 {
		return fmt.Errorf("history.momentum_bars must be non-negative")
	}
	a := c.Allocation
	if a.IncomeTarget < 0 || a.GrowthTarget < 0 {
		return fmt.Errorf("allocation targets must be non-negative")
	}
	if math.Abs(a.IncomeTarget+a.GrowthTarget-1.0) > 1e-6 {
		return fmt.Errorf("allocation targets must sum to 1.0, got %.4f", a.IncomeTarget+a.GrowthTarget)
	}
	if a.BalancedSlots <= 0 {
		return fmt.Errorf("allocation.balanced_slots must be positive")
	}
	if c.Providers.Retries < 0 {
		return fmt.Errorf("providers.retries must be non-negative")
	}
	return nil
}
