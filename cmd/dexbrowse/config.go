package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/dex-browser/pkg/browser"
	"github.com/Sternrassler/dex-browser/pkg/client"
	"github.com/Sternrassler/dex-browser/pkg/logging"
	"github.com/Sternrassler/dex-browser/pkg/pagination"
	"github.com/Sternrassler/dex-browser/pkg/source"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	configFileName = "dexbrowse"
	configFileType = "yaml"
	envPrefix      = "DEXBROWSE"

	cfgKeyBaseURL         = "api.base_url"
	cfgKeyUserAgent       = "api.user_agent"
	cfgKeyTimeout         = "api.timeout"
	cfgKeyMaxRetries      = "api.max_retries"
	cfgKeyPageSize        = "pagination.page_size"
	cfgKeyMaxConcurrency  = "pagination.max_concurrency"
	cfgKeyItemTimeout     = "pagination.item_timeout"
	cfgKeyBottomTolerance = "pagination.bottom_tolerance"
	cfgKeyRedisAddr       = "cache.redis_addr"
	cfgKeyRedisDB         = "cache.redis_db"
	cfgKeyLogLevel        = "log.level"
	cfgKeyLogPretty       = "log.pretty"
	cfgKeyServeAddr       = "serve.addr"
)

// appConfig is the resolved configuration of one invocation.
type appConfig struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int

	PageSize        int
	MaxConcurrency  int
	ItemTimeout     time.Duration
	BottomTolerance float64

	RedisAddr string
	RedisDB   int

	LogLevel  string
	LogPretty bool

	ServeAddr string
}

// cliOverrides contains flag values that override config file settings
type cliOverrides struct {
	LogLevel  string
	LogPretty bool
	BaseURL   string
	RedisAddr string
	PageSize  int
}

func currentOverrides() cliOverrides {
	return cliOverrides{
		LogLevel:  logLevel,
		LogPretty: logPretty,
		BaseURL:   baseURL,
		RedisAddr: redisAddr,
		PageSize:  pageSize,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(cfgKeyBaseURL, source.DefaultBaseURL)
	v.SetDefault(cfgKeyUserAgent, "dexbrowse/"+Version)
	v.SetDefault(cfgKeyTimeout, 30*time.Second)
	v.SetDefault(cfgKeyMaxRetries, client.DefaultRetryConfig().MaxAttempts)
	v.SetDefault(cfgKeyPageSize, pagination.DefaultPageSize)
	v.SetDefault(cfgKeyMaxConcurrency, pagination.DefaultConfig().MaxConcurrency)
	v.SetDefault(cfgKeyItemTimeout, pagination.DefaultConfig().Timeout)
	v.SetDefault(cfgKeyBottomTolerance, 0.0)
	v.SetDefault(cfgKeyRedisAddr, "")
	v.SetDefault(cfgKeyRedisDB, 0)
	v.SetDefault(cfgKeyLogLevel, string(logging.LevelInfo))
	v.SetDefault(cfgKeyLogPretty, false)
	v.SetDefault(cfgKeyServeAddr, ":8080")
}

// loadConfig reads the config file, DEXBROWSE_* environment variables and
// flag overrides, in increasing precedence. A missing default config file is
// not an error; a missing explicit one is.
func loadConfig(path string, overrides cliOverrides) (*appConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &appConfig{
		BaseURL:         v.GetString(cfgKeyBaseURL),
		UserAgent:       v.GetString(cfgKeyUserAgent),
		Timeout:         v.GetDuration(cfgKeyTimeout),
		MaxRetries:      v.GetInt(cfgKeyMaxRetries),
		PageSize:        v.GetInt(cfgKeyPageSize),
		MaxConcurrency:  v.GetInt(cfgKeyMaxConcurrency),
		ItemTimeout:     v.GetDuration(cfgKeyItemTimeout),
		BottomTolerance: v.GetFloat64(cfgKeyBottomTolerance),
		RedisAddr:       v.GetString(cfgKeyRedisAddr),
		RedisDB:         v.GetInt(cfgKeyRedisDB),
		LogLevel:        v.GetString(cfgKeyLogLevel),
		LogPretty:       v.GetBool(cfgKeyLogPretty),
		ServeAddr:       v.GetString(cfgKeyServeAddr),
	}

	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.LogPretty {
		cfg.LogPretty = true
	}
	if overrides.BaseURL != "" {
		cfg.BaseURL = overrides.BaseURL
	}
	if overrides.RedisAddr != "" {
		cfg.RedisAddr = overrides.RedisAddr
	}
	if overrides.PageSize > 0 {
		cfg.PageSize = overrides.PageSize
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *appConfig) validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("%s must be positive (got %d)", cfgKeyPageSize, c.PageSize)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%s must be >= 1 (got %d)", cfgKeyMaxRetries, c.MaxRetries)
	}
	if c.BottomTolerance < 0 {
		return fmt.Errorf("%s must not be negative", cfgKeyBottomTolerance)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("%s is required", cfgKeyUserAgent)
	}
	return nil
}

func (c *appConfig) browserConfig() browser.Config {
	return browser.Config{
		Pagination: pagination.PaginatorConfig{
			PageSize:        c.PageSize,
			BottomTolerance: c.BottomTolerance,
			Batch: pagination.Config{
				MaxConcurrency: c.MaxConcurrency,
				Timeout:        c.ItemTimeout,
			},
		},
	}
}

func (c *appConfig) setupLogging() {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(c.LogLevel),
		Pretty: c.LogPretty,
		Output: os.Stderr,
	})
}

// newBrowser wires transport, optional cache and source into a browser. The
// returned cleanup closes the transport and Redis connection.
func newBrowser(ctx context.Context, c *appConfig) (*browser.Browser, func(), error) {
	clientCfg := client.DefaultConfig(c.UserAgent)
	clientCfg.Timeout = c.Timeout
	clientCfg.Retry.MaxAttempts = c.MaxRetries

	var rdb *redis.Client
	if c.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: c.RedisAddr,
			DB:   c.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", c.RedisAddr, err)
		}
		log.Info().Str("addr", c.RedisAddr).Int("db", c.RedisDB).Msg("Connected to Redis, response cache enabled")
		clientCfg.Redis = rdb
	}

	apiClient, err := client.New(clientCfg)
	if err != nil {
		if rdb != nil {
			rdb.Close()
		}
		return nil, nil, fmt.Errorf("create client: %w", err)
	}

	src := source.NewHTTPSource(apiClient, c.BaseURL)
	b := browser.New(src, c.browserConfig())

	cleanup := func() {
		apiClient.Close()
		if rdb != nil {
			rdb.Close()
		}
	}
	return b, cleanup, nil
}
