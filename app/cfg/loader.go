package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Archive credentials
	Username    string `long:"username" env:"AO3_USERNAME" description:"Archive account username (required)" required:"true"`
	Password    string `long:"password" env:"AO3_PASSWORD" description:"Archive account password (required)" required:"true"`
	HistoryUser string `long:"history-user" env:"AO3_HISTORY_USER" description:"User whose reading history is served (defaults to the login user)"`

	// Application configuration
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl       string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://opds.example.com)"`
	PageSize      int    `long:"page-size" env:"PAGE_SIZE" default:"20" description:"Entries per archive catalog page"`
	CacheSize     int    `long:"cache-size" env:"CACHE_SIZE" default:"64" description:"Maximum number of cached history pages"`
	CacheTTL      int    `long:"cache-ttl" env:"CACHE_TTL" default:"300" description:"Cached page lifetime in seconds (0 disables expiry)"`
	DBPath        string `long:"db-path" env:"DB_PATH" default:"./readfeed.db" description:"SQLite database path"`
	SelectorsFile string `long:"selectors-file" env:"SELECTORS_FILE" description:"YAML file with selector overrides (optional)"`
	APIAccessKey  string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for admin endpoints (optional)"`
	SyncInterval  int    `long:"sync-interval" env:"SYNC_INTERVAL" default:"900" description:"Background archive sync interval in seconds (0 disables)"`
	SyncDepth     int    `long:"sync-depth" env:"SYNC_DEPTH" default:"3" description:"Number of history pages fetched per background sync"`
	WorkerCount   int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background worker goroutines"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"readfeed/1.0" description:"User agent string for upstream requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Username:      raw.Username,
		Password:      raw.Password,
		HistoryUser:   cmp.Or(raw.HistoryUser, raw.Username),
		Port:          raw.Port,
		BaseUrl:       raw.BaseUrl,
		PageSize:      raw.PageSize,
		CacheSize:     raw.CacheSize,
		CacheTTL:      raw.CacheTTL,
		DBPath:        raw.DBPath,
		SelectorsFile: raw.SelectorsFile,
		APIAccessKey:  raw.APIAccessKey,
		SyncInterval:  raw.SyncInterval,
		SyncDepth:     raw.SyncDepth,
		WorkerCount:   raw.WorkerCount,
		UserAgent:     raw.UserAgent,
		Timezone:      raw.Timezone,
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
