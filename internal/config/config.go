// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/holiuunc/etf-justification-engine/internal/domain"
)

// Config holds application configuration.
type Config struct {
	DataDir  string // Base directory for the database (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	NewsAPIKey    string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string // Empty means the public OpenAI endpoint

	InitialCash float64 // Portfolio seed when no snapshot exists yet

	Triggers  TriggerConfig
	Technical TechnicalConfig
	Regime    RegimeConfig
	Limits    LimitConfig
	Trading   TradingConfig
	Scalpel   ScalpelConfig
	Schedule  ScheduleConfig
}

// TriggerConfig holds the radar scan trigger thresholds.
type TriggerConfig struct {
	PriceMoveThreshold   float64 // Daily return magnitude that flags a price move
	PriceStdDevThreshold float64 // Z-score of daily return that flags a statistical move
	VolumeSpikeThreshold float64 // Volume vs 30-day average ratio that flags a spike
	RSIOverbought        float64
	RSIOversold          float64
	FocusListMaxSize     int
	MinHistoryBars       int // Instruments with fewer bars are skipped
	HistoryDays          int // Calendar days of price history to request
}

// TechnicalConfig holds the indicator parameters.
type TechnicalConfig struct {
	SMAShort           int
	SMAMedium          int
	SMALong            int
	RSILength          int
	MACDFast           int
	MACDSlow           int
	MACDSignal         int
	BollingerLength    int
	BollingerStdDev    float64
	VolumeAvgLookback  int
}

// RegimeConfig holds the volatility bands and per-regime macro splits.
// Band upper bounds are exclusive; a reading at a boundary falls into the
// higher-risk regime.
type RegimeConfig struct {
	ComplacencyBelow float64 // < this is extreme complacency
	NormalBelow      float64 // < this is normal
	CautionBelow     float64 // < this is caution, >= is risk off
	Splits           map[domain.Regime]domain.MacroSplit
}

// LimitConfig holds the position limit parameters.
type LimitConfig struct {
	SinglePositionMax   float64
	SectorMax           float64
	TacticalPositionMax float64
	CashOvernightMax    float64
	CoreMin             float64
	CoreMax             float64
	EquityMin           float64
	EquityMax           float64
}

// TradingConfig holds execution cost and sizing parameters.
type TradingConfig struct {
	Commission       float64 // Fixed per-trade commission
	MinTradeSize     float64 // Gross amount below which a trade is not worth placing
	DriftTolerance   float64 // Weight drift that triggers a rebalancing trade
	InitiateMajor    float64 // Target weight for a new major satellite position
	InitiateTactical float64 // Target weight for a new tactical position
	AdjustStep       float64 // Weight delta for ADD and TRIM actions
}

// ScalpelConfig bounds the enrichment stage.
type ScalpelConfig struct {
	FanOutLimit  int           // Max concurrent enrichment tasks
	TaskTimeout  time.Duration // Per-symbol deadline
	APIBudget    int           // Max external calls per run across news and summarizer
	MaxArticles  int           // Articles fed to the summarizer per symbol
	LookbackDays int           // News search window
}

// ScheduleConfig holds the daily run schedule.
type ScheduleConfig struct {
	Enabled  bool
	CronSpec string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("ENGINE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("ENGINE_PORT", 8010),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		NewsAPIKey:    getEnv("NEWSAPI_KEY", ""),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		InitialCash: getEnvAsFloat("INITIAL_CASH", 100000),

		Triggers: TriggerConfig{
			PriceMoveThreshold:   getEnvAsFloat("PRICE_MOVE_THRESHOLD", 0.015),
			PriceStdDevThreshold: getEnvAsFloat("PRICE_STDDEV_THRESHOLD", 2.0),
			VolumeSpikeThreshold: getEnvAsFloat("VOLUME_SPIKE_THRESHOLD", 1.30),
			RSIOverbought:        getEnvAsFloat("RSI_OVERBOUGHT", 70),
			RSIOversold:          getEnvAsFloat("RSI_OVERSOLD", 30),
			FocusListMaxSize:     getEnvAsInt("FOCUS_LIST_MAX_SIZE", 7),
			MinHistoryBars:       getEnvAsInt("MIN_HISTORY_BARS", 30),
			HistoryDays:          getEnvAsInt("HISTORY_DAYS", 90),
		},
		Technical: TechnicalConfig{
			SMAShort:          20,
			SMAMedium:         50,
			SMALong:           200,
			RSILength:         14,
			MACDFast:          12,
			MACDSlow:          26,
			MACDSignal:        9,
			BollingerLength:   20,
			BollingerStdDev:   2.0,
			VolumeAvgLookback: 30,
		},
		Regime: RegimeConfig{
			ComplacencyBelow: getEnvAsFloat("VIX_COMPLACENCY_BELOW", 15),
			NormalBelow:      getEnvAsFloat("VIX_NORMAL_BELOW", 25),
			CautionBelow:     getEnvAsFloat("VIX_CAUTION_BELOW", 35),
			Splits: map[domain.Regime]domain.MacroSplit{
				domain.RegimeExtremeComplacency: {Equity: 0.85, FixedIncome: 0.10, CashEquivalent: 0.05},
				domain.RegimeNormal:             {Equity: 0.95, FixedIncome: 0.05, CashEquivalent: 0.00},
				domain.RegimeCaution:            {Equity: 0.80, FixedIncome: 0.15, CashEquivalent: 0.05},
				domain.RegimeRiskOff:            {Equity: 0.60, FixedIncome: 0.20, CashEquivalent: 0.20},
			},
		},
		Limits: LimitConfig{
			SinglePositionMax:   getEnvAsFloat("SINGLE_POSITION_MAX", 0.30),
			SectorMax:           getEnvAsFloat("SECTOR_MAX", 0.50),
			TacticalPositionMax: getEnvAsFloat("TACTICAL_POSITION_MAX", 0.30),
			CashOvernightMax:    getEnvAsFloat("CASH_OVERNIGHT_MAX", 0.05),
			CoreMin:             getEnvAsFloat("CORE_MIN", 0.25),
			CoreMax:             getEnvAsFloat("CORE_MAX", 0.40),
			EquityMin:           getEnvAsFloat("EQUITY_MIN", 0.85),
			EquityMax:           getEnvAsFloat("EQUITY_MAX", 1.00),
		},
		Trading: TradingConfig{
			Commission:       getEnvAsFloat("COMMISSION", 10),
			MinTradeSize:     getEnvAsFloat("MIN_TRADE_SIZE", 500),
			DriftTolerance:   getEnvAsFloat("DRIFT_TOLERANCE", 0.05),
			InitiateMajor:    getEnvAsFloat("INITIATE_MAJOR_WEIGHT", 0.10),
			InitiateTactical: getEnvAsFloat("INITIATE_TACTICAL_WEIGHT", 0.05),
			AdjustStep:       getEnvAsFloat("ADJUST_STEP", 0.03),
		},
		Scalpel: ScalpelConfig{
			FanOutLimit:  getEnvAsInt("SCALPEL_FANOUT_LIMIT", 4),
			TaskTimeout:  time.Duration(getEnvAsInt("SCALPEL_TASK_TIMEOUT_SEC", 45)) * time.Second,
			APIBudget:    getEnvAsInt("SCALPEL_API_BUDGET", 20),
			MaxArticles:  getEnvAsInt("SCALPEL_MAX_ARTICLES", 5),
			LookbackDays: getEnvAsInt("SCALPEL_NEWS_LOOKBACK_DAYS", 7),
		},
		Schedule: ScheduleConfig{
			Enabled:  getEnvAsBool("SCHEDULE_ENABLED", true),
			CronSpec: getEnv("SCHEDULE_CRON", "0 30 16 * * MON-FRI"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent. Errors
// name the offending parameter so misconfiguration is diagnosable at startup.
func (c *Config) Validate() error {
	t := c.Triggers
	if t.PriceMoveThreshold <= 0 {
		return fmt.Errorf("config: PRICE_MOVE_THRESHOLD must be positive, got %v", t.PriceMoveThreshold)
	}
	if t.VolumeSpikeThreshold <= 1.0 {
		return fmt.Errorf("config: VOLUME_SPIKE_THRESHOLD must exceed 1.0, got %v", t.VolumeSpikeThreshold)
	}
	if t.RSIOversold >= t.RSIOverbought {
		return fmt.Errorf("config: RSI_OVERSOLD (%v) must be below RSI_OVERBOUGHT (%v)", t.RSIOversold, t.RSIOverbought)
	}
	if t.FocusListMaxSize <= 0 {
		return fmt.Errorf("config: FOCUS_LIST_MAX_SIZE must be positive, got %d", t.FocusListMaxSize)
	}
	if t.MinHistoryBars <= 0 {
		return fmt.Errorf("config: MIN_HISTORY_BARS must be positive, got %d", t.MinHistoryBars)
	}

	r := c.Regime
	if !(r.ComplacencyBelow < r.NormalBelow && r.NormalBelow < r.CautionBelow) {
		return fmt.Errorf("config: volatility bands must be strictly increasing, got %v < %v < %v",
			r.ComplacencyBelow, r.NormalBelow, r.CautionBelow)
	}
	for regime, split := range r.Splits {
		if diff := split.Sum() - 1.0; diff > 1e-6 || diff < -1e-6 {
			return fmt.Errorf("config: macro split for %s sums to %v, want 1.0", regime, split.Sum())
		}
	}

	l := c.Limits
	if l.CoreMin >= l.CoreMax {
		return fmt.Errorf("config: CORE_MIN (%v) must be below CORE_MAX (%v)", l.CoreMin, l.CoreMax)
	}
	if l.EquityMin >= l.EquityMax {
		return fmt.Errorf("config: EQUITY_MIN (%v) must be below EQUITY_MAX (%v)", l.EquityMin, l.EquityMax)
	}
	if l.SinglePositionMax <= 0 || l.SinglePositionMax > 1 {
		return fmt.Errorf("config: SINGLE_POSITION_MAX must be in (0, 1], got %v", l.SinglePositionMax)
	}

	tr := c.Trading
	if tr.Commission < 0 {
		return fmt.Errorf("config: COMMISSION must not be negative, got %v", tr.Commission)
	}
	if tr.MinTradeSize <= 0 {
		return fmt.Errorf("config: MIN_TRADE_SIZE must be positive, got %v", tr.MinTradeSize)
	}

	s := c.Scalpel
	if s.FanOutLimit <= 0 {
		return fmt.Errorf("config: SCALPEL_FANOUT_LIMIT must be positive, got %d", s.FanOutLimit)
	}
	if s.APIBudget < 0 {
		return fmt.Errorf("config: SCALPEL_API_BUDGET must not be negative, got %d", s.APIBudget)
	}
	if s.TaskTimeout <= 0 {
		return fmt.Errorf("config: SCALPEL_TASK_TIMEOUT_SEC must be positive, got %v", s.TaskTimeout)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
