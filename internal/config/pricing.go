package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricingConfig is the fallback pricing policy applied to principals that
// carry no tier of their own.
type PricingConfig struct {
	DefaultTokenGrant int64 `mapstructure:"defaultTokenGrant"`
	RequestCost       int64 `mapstructure:"requestCost"`
	FreeDailyRequests int64 `mapstructure:"freeDailyRequests"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		DefaultTokenGrant: 100,
		RequestCost:       2,
		FreeDailyRequests: 5,
	}
}

// PricingConfigHolder serves the current pricing policy and reloads it when
// the backing file changes.
type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/gramwave/config") // Volume-mounted config
	v.AddConfigPath("/etc/gramwave")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("GRAMWAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPricingConfig()
		v.SetDefault("pricing.defaultTokenGrant", defaults.DefaultTokenGrant)
		v.SetDefault("pricing.requestCost", defaults.RequestCost)
		v.SetDefault("pricing.freeDailyRequests", defaults.FreeDailyRequests)
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticPricingConfigHolder returns a holder pinned to cfg with no file
// watching behind it.
func NewStaticPricingConfigHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

func validatePricingConfig(cfg PricingConfig) error {
	if cfg.RequestCost < 0 {
		return errors.New("pricing.requestCost cannot be negative")
	}
	if cfg.FreeDailyRequests < 0 {
		return errors.New("pricing.freeDailyRequests cannot be negative")
	}
	if cfg.DefaultTokenGrant < 0 {
		return errors.New("pricing.defaultTokenGrant cannot be negative")
	}
	return nil
}
