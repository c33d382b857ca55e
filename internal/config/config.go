// Package config loads planner settings from .env, an optional planner.yaml and
// PLANNER_-prefixed environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"inventory-planner/internal/core"
	"inventory-planner/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "PLANNER"

type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	JWT      JWTConfig
	Log      logger.Config
	Planning core.PlanningConfig
}

type DatabaseConfig struct {
	URL string
}

type HTTPConfig struct {
	Port string
	// AllowedOrigins is a comma-separated CORS allow list; empty disables CORS.
	AllowedOrigins string
}

type JWTConfig struct {
	Secret string
}

// Load reads configuration. dirs are searched for planner.yaml; with no dirs
// the working directory is used.
func Load(dirs ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("planner")
	v.SetConfigType("yaml")
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// DATABASE_URL is what the rest of the tooling (psql, migrate) already uses.
	if err := v.BindEnv("database.url", envPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("bind database url: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{URL: v.GetString("database.url")},
		HTTP: HTTPConfig{
			Port:           v.GetString("http.port"),
			AllowedOrigins: v.GetString("http.allowed_origins"),
		},
		JWT: JWTConfig{Secret: v.GetString("jwt.secret")},
		Log: logger.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Planning: core.PlanningConfig{
			HoldingCostMethod:        core.HoldingCostMethod(v.GetString("holding_cost.method")),
			HoldingCostPercentage:    v.GetFloat64("holding_cost.percentage"),
			HoldingCostFixedAmount:   v.GetFloat64("holding_cost.fixed_amount"),
			ZScore:                   v.GetFloat64("safety_stock.z_score"),
			DailyWindowDays:          v.GetInt("demand.daily_window_days"),
			AnnualWindowDays:         v.GetInt("demand.annual_window_days"),
			ZeroFillDemand:           v.GetBool("demand.zero_fill"),
			LeadTimeWindowDays:       v.GetInt("lead_time.window_days"),
			RopLeadBufferDays:        v.GetInt("procurement.rop_lead_buffer_days"),
			SalesOrderLeadBufferDays: v.GetInt("procurement.sales_order_lead_buffer_days"),
			MaterialFloorQuantity:    v.GetInt64("procurement.material_floor_quantity"),
			ProductFloorQuantity:     v.GetInt64("procurement.product_floor_quantity"),
			ProductCostRatio:         v.GetFloat64("procurement.product_cost_ratio"),
		},
	}
	if err := cfg.Planning.Validate(); err != nil {
		return nil, fmt.Errorf("planning config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	p := core.DefaultPlanningConfig()
	log := logger.DefaultConfig()

	v.SetDefault("database.url", "")
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.allowed_origins", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("log.level", log.Level)
	v.SetDefault("log.format", log.Format)
	v.SetDefault("log.output", log.Output)

	v.SetDefault("holding_cost.method", string(p.HoldingCostMethod))
	v.SetDefault("holding_cost.percentage", p.HoldingCostPercentage)
	v.SetDefault("holding_cost.fixed_amount", p.HoldingCostFixedAmount)
	v.SetDefault("safety_stock.z_score", p.ZScore)
	v.SetDefault("demand.daily_window_days", p.DailyWindowDays)
	v.SetDefault("demand.annual_window_days", p.AnnualWindowDays)
	v.SetDefault("demand.zero_fill", p.ZeroFillDemand)
	v.SetDefault("lead_time.window_days", p.LeadTimeWindowDays)
	v.SetDefault("procurement.rop_lead_buffer_days", p.RopLeadBufferDays)
	v.SetDefault("procurement.sales_order_lead_buffer_days", p.SalesOrderLeadBufferDays)
	v.SetDefault("procurement.material_floor_quantity", p.MaterialFloorQuantity)
	v.SetDefault("procurement.product_floor_quantity", p.ProductFloorQuantity)
	v.SetDefault("procurement.product_cost_ratio", p.ProductCostRatio)
}

// RequireDatabase returns an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database url not set (PLANNER_DATABASE_URL or DATABASE_URL)")
	}
	return nil
}
