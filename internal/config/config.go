package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env                string        `mapstructure:"ENV"`
	Port               string        `mapstructure:"PORT"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	AdminKey           string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed        string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	RulesetPath        string        `mapstructure:"RULESET_PATH"`
	WorkStartHour      int           `mapstructure:"WORK_START_HOUR"`
	WorkEndHour        int           `mapstructure:"WORK_END_HOUR"`
	Timezone           string        `mapstructure:"TIMEZONE"`
	ScoringParallelism int           `mapstructure:"SCORING_PARALLELISM"`
	SeedDemo           bool          `mapstructure:"SEED_DEMO"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ADMIN_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("RULESET_PATH", "")
	v.SetDefault("WORK_START_HOUR", 9)
	v.SetDefault("WORK_END_HOUR", 17)
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("SCORING_PARALLELISM", 4)
	v.SetDefault("SEED_DEMO", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.WorkStartHour < 0 || cfg.WorkEndHour > 24 || cfg.WorkStartHour >= cfg.WorkEndHour {
		return Config{}, fmt.Errorf("invalid working hours %d-%d", cfg.WorkStartHour, cfg.WorkEndHour)
	}
	return cfg, nil
}

// Location resolves TIMEZONE; "Local" and "" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
