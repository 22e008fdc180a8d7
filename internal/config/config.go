package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the viewer
type Config struct {
	ListenAddr       string
	DBPath           string
	AirportsCSV      string
	TAFCSV           string
	LookupURL        string
	DestinationICAOs []string
	RequestTimeout   time.Duration
	RequestRetries   int
	TAFReload        time.Duration
	ViewTTL          time.Duration
	Autocomplete     AutocompleteConfig
	Map              MapConfig
	Log              LogConfig
}

// AutocompleteConfig holds origin-airport suggestion settings
type AutocompleteConfig struct {
	MinChars  int
	CacheSize int
	CacheTTL  time.Duration
}

// MapConfig holds base map settings handed to the browser
type MapConfig struct {
	Zoom        int
	TileURL     string
	Attribution string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

const defaultAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors, &copy; <a href="http://cartodb.com/attributions">CartoDB</a>`

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("db_path", "runway_view.db")
	v.SetDefault("airports_csv", "internal/database/datasets/airports.csv")
	v.SetDefault("taf_csv", "internal/database/datasets/taf_end_times.csv")
	v.SetDefault("lookup_url", "http://localhost:8080")
	v.SetDefault("destination_icaos", "EHAM,LEMD,LFPO,LOWW")
	v.SetDefault("request_timeout", 10)
	v.SetDefault("request_retries", 2)
	v.SetDefault("taf_reload_interval", 600)
	v.SetDefault("view_ttl", 3600)
	v.SetDefault("autocomplete.min_chars", 2)
	v.SetDefault("autocomplete.cache_size", 256)
	v.SetDefault("autocomplete.cache_ttl", 300)
	v.SetDefault("map.zoom", 12)
	v.SetDefault("map.tile_url", "http://{s}.basemaps.cartocdn.com/light_nolabels/{z}/{x}/{y}.png")
	v.SetDefault("map.attribution", defaultAttribution)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("/etc/runway_view")
	v.AddConfigPath(".")

	if configPath := os.Getenv("RUNWAY_VIEW_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Missing config file is fine, defaults + env vars apply
	}

	v.SetEnvPrefix("RUNWAY_VIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		ListenAddr:       v.GetString("listen_addr"),
		DBPath:           v.GetString("db_path"),
		AirportsCSV:      v.GetString("airports_csv"),
		TAFCSV:           v.GetString("taf_csv"),
		LookupURL:        strings.TrimRight(v.GetString("lookup_url"), "/"),
		DestinationICAOs: splitICAOs(v.GetString("destination_icaos")),
		RequestTimeout:   time.Duration(v.GetInt("request_timeout")) * time.Second,
		RequestRetries:   v.GetInt("request_retries"),
		TAFReload:        time.Duration(v.GetInt("taf_reload_interval")) * time.Second,
		ViewTTL:          time.Duration(v.GetInt("view_ttl")) * time.Second,
		Autocomplete: AutocompleteConfig{
			MinChars:  v.GetInt("autocomplete.min_chars"),
			CacheSize: v.GetInt("autocomplete.cache_size"),
			CacheTTL:  time.Duration(v.GetInt("autocomplete.cache_ttl")) * time.Second,
		},
		Map: MapConfig{
			Zoom:        v.GetInt("map.zoom"),
			TileURL:     v.GetString("map.tile_url"),
			Attribution: v.GetString("map.attribution"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// splitICAOs turns "EHAM, lemd" into [EHAM LEMD]
func splitICAOs(raw string) []string {
	var icaos []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			icaos = append(icaos, part)
		}
	}
	return icaos
}

// validate validates the configuration values
func validate(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}

	if cfg.LookupURL == "" {
		return fmt.Errorf("lookup_url is required")
	}

	if len(cfg.DestinationICAOs) == 0 {
		return fmt.Errorf("destination_icaos must list at least one airport")
	}
	for _, icao := range cfg.DestinationICAOs {
		if len(icao) != 4 {
			return fmt.Errorf("invalid destination icao: %q (must be 4 characters)", icao)
		}
	}

	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be greater than 0")
	}

	if cfg.RequestRetries < 0 {
		return fmt.Errorf("request_retries must not be negative")
	}

	if cfg.TAFReload <= 0 {
		return fmt.Errorf("taf_reload_interval must be greater than 0")
	}

	if cfg.ViewTTL <= 0 {
		return fmt.Errorf("view_ttl must be greater than 0")
	}

	if cfg.Autocomplete.MinChars <= 0 {
		return fmt.Errorf("autocomplete.min_chars must be greater than 0")
	}

	if cfg.Autocomplete.CacheSize <= 0 {
		return fmt.Errorf("autocomplete.cache_size must be greater than 0")
	}

	if cfg.Map.Zoom < 0 || cfg.Map.Zoom > 22 {
		return fmt.Errorf("map.zoom must be between 0 and 22")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
