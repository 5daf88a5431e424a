package flags

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	libnats "github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"yallapost/internal/config"
)

const envPrefix = "YALLA_"

var validLogLevels = []string{"debug", "info", "warn", "error"}

func env(name string) cli.ValueSourceChain {
	return cli.EnvVars(envPrefix + name)
}

func oneOf(allowed []string, what string) func(string) error {
	return func(value string) error {
		if !slices.Contains(allowed, value) {
			return fmt.Errorf("invalid %s: %s, allowed values are: %s", what, value, allowed)
		}
		return nil
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".yalla-token"
	}
	return filepath.Join(dir, "yalla", "token")
}

var LogLevel = &cli.StringFlag{
	Name:      "log-level",
	Aliases:   []string{"l"},
	Usage:     "The level of the logs",
	Value:     "info",
	Validator: oneOf(validLogLevels, "log level"),
	Sources:   env("LOG_LEVEL"),
}

var BaseURL = &cli.StringFlag{
	Name:    "base-url",
	Usage:   "The base URL of the Yalla Post API",
	Sources: env("BASE_URL"),
}

var RequestTimeout = &cli.DurationFlag{
	Name:    "request-timeout",
	Usage:   "Give up on a backend request after this long",
	Value:   15 * time.Second,
	Sources: env("REQUEST_TIMEOUT"),
}

var PageSize = &cli.IntFlag{
	Name:    "page-size",
	Usage:   "Number of posts per feed page",
	Value:   40,
	Sources: env("PAGE_SIZE"),
}

var TokenStore = &cli.StringFlag{
	Name:      "token-store",
	Usage:     fmt.Sprintf("Where the session token is kept, one of %s", config.TokenStores),
	Value:     config.TokenStoreFile,
	Validator: oneOf(config.TokenStores, "token store"),
	Sources:   env("TOKEN_STORE"),
}

var TokenFile = &cli.StringFlag{
	Name:    "token-file",
	Usage:   "The session token file of the file token store",
	Value:   defaultTokenFile(),
	Sources: env("TOKEN_FILE"),
}

var NATSURL = &cli.StringFlag{
	Name:    "nats-url",
	Aliases: []string{"n"},
	Usage:   "The URL of the NATS server",
	Value:   libnats.DefaultURL,
	Sources: env("NATS_URL"),
}

var NATSBucket = &cli.StringFlag{
	Name:    "nats-bucket",
	Usage:   "The NATS KeyValue bucket holding the session token",
	Value:   "yalla",
	Sources: env("NATS_BUCKET"),
}

var NATSInit = &cli.BoolFlag{
	Name:        "nats-init",
	Usage:       "Create or update the NATS KeyValue bucket",
	DefaultText: "false",
	Value:       false,
	Sources:     env("NATS_INIT"),
}

var RedisAddr = &cli.StringFlag{
	Name:    "redis-addr",
	Usage:   "The address of the Redis server",
	Value:   "localhost:6379",
	Sources: env("REDIS_ADDR"),
}

var RedisDB = &cli.IntFlag{
	Name:    "redis-db",
	Usage:   "The Redis database",
	Sources: env("REDIS_DB"),
}

var LogoutDelay = &cli.DurationFlag{
	Name:    "logout-delay",
	Usage:   "How long after a password change the session ends",
	Value:   3 * time.Second,
	Sources: env("LOGOUT_DELAY"),
}

var ListenAddr = &cli.StringFlag{
	Name:    "listen-addr",
	Usage:   "The address the gateway listens on",
	Value:   ":8888",
	Sources: env("LISTEN_ADDR"),
}

var MetricsAddr = &cli.StringFlag{
	Name:    "metrics-addr",
	Usage:   "The address the metrics server listens on",
	Value:   ":8080",
	Sources: env("METRICS_ADDR"),
}

var AllowedOrigins = &cli.StringSliceFlag{
	Name:    "allowed-origins",
	Usage:   "Browser origins allowed to call the gateway, comma separated",
	Value:   config.DefaultAllowedOrigins,
	Sources: env("ALLOWED_ORIGINS"),
}

var Raw = &cli.BoolFlag{
	Name:  "raw",
	Usage: "Dump responses as Go values",
}

var Yes = &cli.BoolFlag{
	Name:    "yes",
	Aliases: []string{"y"},
	Usage:   "Answer yes to confirmation prompts",
}

var Page = &cli.IntFlag{
	Name:    "page",
	Aliases: []string{"p"},
	Usage:   "The page to show",
	Value:   1,
}

var Global = []cli.Flag{
	LogLevel,
	BaseURL,
	RequestTimeout,
	PageSize,
	TokenStore,
	TokenFile,
	NATSURL,
	NATSBucket,
	NATSInit,
	RedisAddr,
	RedisDB,
	LogoutDelay,
	Raw,
	Yes,
}
