package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// LimitsConfig carries operational limit tuning. The daily ceiling defaults
// to the product constant and is only overridden through limits.yml.
type LimitsConfig struct {
	DailyCeiling string `mapstructure:"dailyCeiling"`
}

func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{DailyCeiling: "2000.00"}
}

// LimitsHolder exposes the active daily ceiling with hot reload support.
type LimitsHolder struct {
	current atomic.Value // holds decimal.Decimal
}

func NewLimitsHolder() (*LimitsHolder, error) {
	v := viper.New()

	v.SetConfigName("limits")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/payline/config") // Volume-mounted config
	v.AddConfigPath("/etc/payline")            // System config
	v.AddConfigPath(".")                       // Current directory (dev mode)

	v.SetEnvPrefix("PAYLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// no config file, run on defaults
		watch = false
		defaults := DefaultLimitsConfig()
		v.SetDefault("limits.dailyCeiling", defaults.DailyCeiling)
	}

	holder := &LimitsHolder{}
	if err := holder.load(v); err != nil {
		return nil, err
	}

	if watch {
		v.OnConfigChange(func(e fsnotify.Event) {
			if err := holder.load(v); err != nil {
				log.Printf("[limits-config] invalid config ignored: %v", err)
				return
			}
			log.Printf("[limits-config] reloaded from %s", e.Name)
		})
		v.WatchConfig()
	}

	return holder, nil
}

func (h *LimitsHolder) load(v *viper.Viper) error {
	var cfg LimitsConfig
	if err := v.UnmarshalKey("limits", &cfg); err != nil {
		return err
	}
	raw := strings.TrimSpace(cfg.DailyCeiling)
	if raw == "" {
		raw = DefaultLimitsConfig().DailyCeiling
	}
	ceiling, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	h.current.Store(ceiling)
	return nil
}

// DailyCeiling returns the active daily spending ceiling.
func (h *LimitsHolder) DailyCeiling() decimal.Decimal {
	if v, ok := h.current.Load().(decimal.Decimal); ok {
		return v
	}
	ceiling, _ := decimal.NewFromString(DefaultLimitsConfig().DailyCeiling)
	return ceiling
}

// StaticLimitsHolder returns a holder pinned to the given ceiling. Used by
// tests and tooling that must not read limits.yml.
func StaticLimitsHolder(ceiling decimal.Decimal) *LimitsHolder {
	holder := &LimitsHolder{}
	holder.current.Store(ceiling)
	return holder
}
