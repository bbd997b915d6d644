package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricePlan maps one payment-provider price identifier to a credit amount.
// Credits granted from webhooks are resolved through this table; they are
// never inferred from the charged amount.
type PricePlan struct {
	PriceID string `mapstructure:"priceId"`
	Credits int64  `mapstructure:"credits"`
	Label   string `mapstructure:"label"`
}

type PricingConfig struct {
	Plans []PricePlan `mapstructure:"plans"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		Plans: []PricePlan{
			{PriceID: "price_starter", Credits: 10, Label: "Starter pack"},
			{PriceID: "price_growth", Credits: 50, Label: "Growth pack"},
			{PriceID: "price_scale", Credits: 200, Label: "Scale pack"},
		},
	}
}

// PricingHolder holds the current pricing table and hot-reloads it when the
// config file changes.
type PricingHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingHolder() (*PricingHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/sitescope/config") // Volume-mounted config
	v.AddConfigPath("/etc/sitescope")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("SITESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPricingConfig()
		v.SetDefault("pricing.plans", defaults.Plans)
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Plans) == 0 {
		cfg = DefaultPricingConfig()
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingHolder{}
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

// NewStaticPricing builds a holder with a fixed table and no file watching.
func NewStaticPricing(cfg PricingConfig) (*PricingHolder, error) {
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}
	holder := &PricingHolder{}
	holder.current.Store(cfg)
	return holder, nil
}

func (h *PricingHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

// LookupCredits resolves a provider price identifier to its credit amount.
func (h *PricingHolder) LookupCredits(priceID string) (int64, bool) {
	for _, plan := range h.Get().Plans {
		if plan.PriceID == priceID {
			return plan.Credits, true
		}
	}
	return 0, false
}

func validatePricingConfig(cfg PricingConfig) error {
	if len(cfg.Plans) == 0 {
		return errors.New("pricing.plans cannot be empty")
	}
	seen := make(map[string]struct{}, len(cfg.Plans))
	for _, plan := range cfg.Plans {
		if strings.TrimSpace(plan.PriceID) == "" {
			return errors.New("pricing.plans priceId cannot be empty")
		}
		if plan.Credits <= 0 {
			return errors.New("pricing.plans credits must be positive")
		}
		if _, ok := seen[plan.PriceID]; ok {
			return errors.New("pricing.plans priceId must be unique")
		}
		seen[plan.PriceID] = struct{}{}
	}
	return nil
}
