// Command hidroweb is a small example CLI over the SDK: look up stations,
// search the inventory, or dump a time series as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	hidroweb "github.com/nvxtech/hidroweb-go"
	"github.com/nvxtech/hidroweb-go/internal/observability"
)

type fileConfig struct {
	BaseURL      string `yaml:"base_url"`
	Timeout      string `yaml:"timeout"`
	MaxRetries   int    `yaml:"max_retries"`
	RateLimitRPS int    `yaml:"rate_limit_rps"`
	ChunkDays    int    `yaml:"chunk_days"`
}

func main() {
	var (
		configPath = flag.String("config", "", "optional YAML config file")
		station    = flag.String("station", "", "8-digit station code")
		series     = flag.String("series", "flow", "series type: flow|rainfall|water_level|temperature|water_quality")
		startStr   = flag.String("start", "", "start date (YYYY-MM-DD)")
		endStr     = flag.String("end", "", "end date (YYYY-MM-DD)")
		search     = flag.String("search", "", "search stations by name or code")
		state      = flag.String("state", "", "filter stations by federative unit")
		limit      = flag.Int("limit", 50, "max search results")
		logLevel   = flag.String("log-level", os.Getenv("LOG_LEVEL"), "log level: debug|info|warn|error")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger, err := observability.NewLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := hidroweb.ConfigFromEnv()
	cfg.Logger = logger
	if *configPath != "" {
		if err := applyFileConfig(*configPath, &cfg); err != nil {
			logger.Fatal("config", zap.Error(err))
		}
	}

	client, err := hidroweb.NewClient(cfg)
	if err != nil {
		logger.Fatal("client", zap.Error(err))
	}

	ctx := context.Background()

	switch {
	case *search != "":
		stations, err := client.SearchStations(ctx, *search, *limit)
		if err != nil {
			logger.Fatal("search stations", zap.Error(err))
		}
		printStations(stations)

	case *station != "" && *startStr != "" && *endStr != "":
		start, err := time.Parse("2006-01-02", *startStr)
		if err != nil {
			logger.Fatal("parse start date", zap.Error(err))
		}
		end, err := time.Parse("2006-01-02", *endStr)
		if err != nil {
			logger.Fatal("parse end date", zap.Error(err))
		}
		ts, err := client.GetTimeSeries(ctx, *station, start, end, hidroweb.SeriesType(*series))
		if err != nil {
			logger.Fatal("get time series", zap.Error(err))
		}
		logger.Info("series assembled",
			zap.String("station", ts.StationCode),
			zap.Int("observations", ts.Len()),
			zap.Int("gaps", ts.Gaps()))
		if err := ts.WriteCSV(os.Stdout); err != nil {
			logger.Fatal("write csv", zap.Error(err))
		}

	case *station != "":
		s, err := client.GetStationInfo(ctx, *station)
		if err != nil {
			logger.Fatal("get station info", zap.Error(err))
		}
		printStations([]hidroweb.Station{s})

	default:
		stations, err := client.GetStations(ctx, hidroweb.StationFilter{State: *state})
		if err != nil {
			logger.Fatal("list stations", zap.Error(err))
		}
		printStations(stations)
	}
}

func applyFileConfig(path string, cfg *hidroweb.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if fc.BaseURL != "" {
		cfg.BaseURL = fc.BaseURL
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if fc.MaxRetries > 0 {
		cfg.MaxRetries = fc.MaxRetries
	}
	if fc.RateLimitRPS > 0 {
		cfg.RateLimitRPS = fc.RateLimitRPS
	}
	if fc.ChunkDays > 0 {
		cfg.ChunkDays = fc.ChunkDays
	}
	return nil
}

func printStations(stations []hidroweb.Station) {
	for _, s := range stations {
		coords := ""
		if s.HasCoordinates() {
			coords = fmt.Sprintf(" (%.4f, %.4f)", *s.Latitude, *s.Longitude)
		}
		fmt.Printf("%s  %-40s %s/%s %s%s\n", s.Code, s.Name, s.State, s.Municipality, s.Type, coords)
	}
}
