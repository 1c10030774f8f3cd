package robo

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Enabled         bool          `envconfig:"ROBO_ENABLED" default:"true"`
	TickInterval    time.Duration `envconfig:"ROBO_TICK_INTERVAL" default:"1m"`
	CleanupInterval time.Duration `envconfig:"ROBO_CLEANUP_INTERVAL" default:"1h"`
	LockTTL         time.Duration `envconfig:"ROBO_LOCK_TTL" default:"30s"`
	NotifyAttempts  int           `envconfig:"ROBO_NOTIFY_ATTEMPTS" default:"3"`
	NotifyBackoff   time.Duration `envconfig:"ROBO_NOTIFY_BACKOFF" default:"250ms"`
	UsageRetention  time.Duration `envconfig:"ROBO_USAGE_RETENTION" default:"2160h"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
