package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"signal_bridge/internal/models"
)

const configFilePathENV = "CONFIG_FILE"

// Config is the full configuration surface of the bridge. Values come from
// a yaml file under configs/ (selected with CONFIG_FILE), overridable via
// environment; secrets are env-only in production.
type Config struct {
	Service struct {
		Name  string `mapstructure:"name"`
		Debug bool   `mapstructure:"debug"`
	} `mapstructure:"service"`

	Discord struct {
		Token             string `mapstructure:"token"`
		ChannelID         string `mapstructure:"channel_id"`
		PollBaseSeconds   int    `mapstructure:"poll_base_seconds"`
		PollOffsetSeconds int    `mapstructure:"poll_offset_seconds"`
	} `mapstructure:"discord"`

	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	DB        string `mapstructure:"db_dsn"`
	StateFile string `mapstructure:"state_file"`

	Health struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"health"`

	Tracing struct {
		Enabled bool   `mapstructure:"enabled"`
		Host    string `mapstructure:"host"`
		Port    int    `mapstructure:"port"`
	} `mapstructure:"tracing"`

	Gateway struct {
		WebhookURL string `mapstructure:"webhook_url"`
		APIKey     string `mapstructure:"api_key"`
		APISecret  string `mapstructure:"api_secret"`
		Exchange   string `mapstructure:"exchange"`
	} `mapstructure:"gateway"`

	Signals struct {
		// Keywords maps a directional keyword onto "long" or "short".
		Keywords      map[string]string `mapstructure:"keywords"`
		NoisePrefixes []string          `mapstructure:"noise_prefixes"`
		// SymbolsFile points at the alias/tick/cap tables; empty uses the
		// built-in defaults.
		SymbolsFile string `mapstructure:"symbols_file"`
	} `mapstructure:"signals"`

	Risk struct {
		SafetyPct   float64 `mapstructure:"safety_pct"`
		MaxLeverage int     `mapstructure:"max_leverage"`
	} `mapstructure:"risk"`

	Order struct {
		TakeProfitSplit   []int `mapstructure:"take_profit_split"`
		ExpirationMinutes int   `mapstructure:"expiration_minutes"`
	} `mapstructure:"order"`

	LegFilter struct {
		Enabled           bool    `mapstructure:"enabled"`
		ThresholdPct      float64 `mapstructure:"threshold_pct"`
		LookbackBars      int     `mapstructure:"lookback_bars"`
		Bar               string  `mapstructure:"bar"`
		MaxLeg            int     `mapstructure:"max_leg"`
		RequireTrendMatch bool    `mapstructure:"require_trend_match"`
		FailMode          string  `mapstructure:"fail_mode"` // open | closed
	} `mapstructure:"leg_filter"`

	Touch struct {
		MaxWaitSeconds      int     `mapstructure:"max_wait_seconds"`
		PollIntervalSeconds int     `mapstructure:"poll_interval_seconds"`
		TolerancePct        float64 `mapstructure:"tolerance_pct"`
		OrderType           string  `mapstructure:"order_type"` // limit | market
	} `mapstructure:"touch"`

	Basis struct {
		Mode     string  `mapstructure:"mode"` // off | spot | adjust
		ClampPct float64 `mapstructure:"clamp_pct"`
	} `mapstructure:"basis"`

	MarketData struct {
		RESTBase      string `mapstructure:"rest_base"`
		WSURL         string `mapstructure:"ws_url"`
		Quote         string `mapstructure:"quote"`
		StreamEnabled bool   `mapstructure:"stream_enabled"`
	} `mapstructure:"market_data"`
}

func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	v.SetConfigFile("configs/" + configFileName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, errors.Wrap(err, "read config file")
			}
		}
		// no file: defaults + environment
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	// secrets stay env-first
	overrideFromEnv(&cfg.Discord.Token, "DISCORD_TOKEN")
	overrideFromEnv(&cfg.Telegram.Token, "TELEGRAM_TOKEN")
	overrideFromEnv(&cfg.DB, "DATABASE_DSN")
	overrideFromEnv(&cfg.Gateway.WebhookURL, "GATEWAY_WEBHOOK_URL")
	overrideFromEnv(&cfg.Gateway.APIKey, "GATEWAY_API_KEY")
	overrideFromEnv(&cfg.Gateway.APISecret, "GATEWAY_API_SECRET")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "signal_bridge")
	v.SetDefault("service.debug", false)

	v.SetDefault("discord.poll_base_seconds", 60)
	v.SetDefault("discord.poll_offset_seconds", 3)

	v.SetDefault("state_file", "state.json")

	v.SetDefault("health.addr", ":8080")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.host", "127.0.0.1")
	v.SetDefault("tracing.port", 6831)

	v.SetDefault("gateway.exchange", "BIFU")

	v.SetDefault("signals.keywords", map[string]string{"BUY": "long", "SELL": "short"})
	v.SetDefault("signals.noise_prefixes", []string{"Timeframe:"})
	v.SetDefault("signals.symbols_file", "configs/symbols.yaml")

	v.SetDefault("risk.safety_pct", 80.0)
	v.SetDefault("risk.max_leverage", 75)

	v.SetDefault("order.take_profit_split", []int{20, 80})
	v.SetDefault("order.expiration_minutes", 15)

	v.SetDefault("leg_filter.enabled", false)
	v.SetDefault("leg_filter.threshold_pct", 1.0)
	v.SetDefault("leg_filter.lookback_bars", 200)
	v.SetDefault("leg_filter.bar", "15m")
	v.SetDefault("leg_filter.max_leg", 3)
	v.SetDefault("leg_filter.require_trend_match", true)
	v.SetDefault("leg_filter.fail_mode", "open")

	v.SetDefault("touch.max_wait_seconds", 900)
	v.SetDefault("touch.poll_interval_seconds", 5)
	v.SetDefault("touch.tolerance_pct", 0.05)
	v.SetDefault("touch.order_type", "limit")

	v.SetDefault("basis.mode", "off")
	v.SetDefault("basis.clamp_pct", 0.5)

	v.SetDefault("market_data.rest_base", "https://www.okx.com")
	v.SetDefault("market_data.ws_url", "wss://ws.okx.com:8443/ws/v5/public")
	v.SetDefault("market_data.quote", "USDT")
	v.SetDefault("market_data.stream_enabled", true)
}

func overrideFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// validate rejects a malformed configuration at startup; this is the only
// process-fatal error class in the system.
func (c *Config) validate() error {
	if len(c.Order.TakeProfitSplit) != 2 {
		return errors.New("config: order.take_profit_split must have exactly two entries")
	}
	if c.Order.TakeProfitSplit[0]+c.Order.TakeProfitSplit[1] != 100 {
		return errors.New("config: order.take_profit_split must sum to 100")
	}
	if c.Risk.SafetyPct <= 0 {
		return errors.New("config: risk.safety_pct must be positive")
	}
	if c.Risk.MaxLeverage < 1 {
		return errors.New("config: risk.max_leverage must be >= 1")
	}
	if c.Touch.PollIntervalSeconds <= 0 {
		return errors.New("config: touch.poll_interval_seconds must be positive")
	}
	switch c.Touch.OrderType {
	case models.OrderTypeLimit, models.OrderTypeMarket:
	default:
		return errors.Errorf("config: touch.order_type %q not in {limit, market}", c.Touch.OrderType)
	}
	switch c.Basis.Mode {
	case "off", "spot", "adjust":
	default:
		return errors.Errorf("config: basis.mode %q not in {off, spot, adjust}", c.Basis.Mode)
	}
	switch c.LegFilter.FailMode {
	case "open", "closed":
	default:
		return errors.Errorf("config: leg_filter.fail_mode %q not in {open, closed}", c.LegFilter.FailMode)
	}
	for kw, side := range c.Signals.Keywords {
		if side != string(models.SideLong) && side != string(models.SideShort) {
			return errors.Errorf("config: signals.keywords[%s] must map to long or short", kw)
		}
	}
	return nil
}

// SideKeywords converts the configured keyword table into model sides.
func (c *Config) SideKeywords() map[string]models.Side {
	out := make(map[string]models.Side, len(c.Signals.Keywords))
	for kw, side := range c.Signals.Keywords {
		out[strings.ToUpper(kw)] = models.Side(side)
	}
	return out
}

func (c *Config) PollBase() time.Duration {
	return time.Duration(c.Discord.PollBaseSeconds) * time.Second
}

func (c *Config) PollOffset() time.Duration {
	return time.Duration(c.Discord.PollOffsetSeconds) * time.Second
}

func (c *Config) TouchMaxWait() time.Duration {
	return time.Duration(c.Touch.MaxWaitSeconds) * time.Second
}

func (c *Config) TouchPollInterval() time.Duration {
	return time.Duration(c.Touch.PollIntervalSeconds) * time.Second
}
