// internal/config/config.go
// Configuration management using environment variables and optional config files

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Tournament  TournamentConfig
}

// ServerConfig contains general process settings
type ServerConfig struct {
	RequestTimeout time.Duration
	WorkerPoolSize int
}

// DatabaseConfig contains all database connection settings
type DatabaseConfig struct {
	MySQL   MySQLConfig
	MongoDB MongoDBConfig
	Redis   RedisConfig
}

// MySQLConfig contains MySQL-specific settings
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MongoDBConfig contains MongoDB-specific settings
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig contains Redis-specific settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TournamentConfig holds the domain constants that drive the engine as
// typed values with environment-overridable TTLs.
type TournamentConfig struct {
	ReportCacheTTL   time.Duration
	PollCacheTTL     time.Duration
	PlacementPoints  map[int]int
	StandConfigs     map[string]StandConfig
	ClosedEvents     map[string]bool
	ChoppingEvents   map[string]bool
	ListOnlyEvents   map[string]bool
	MinHeatSpacing   int
	TargetHeatSpacing int
	HeatsPerFlight   int
}

// StandConfig describes the physical stand layout for a stand_type.
type StandConfig struct {
	Total          int
	SpecificStands []int
}

// EventCatalogEntry is one configurable event template. IsGendered events
// are created as separate men's and women's rows; the rest are created
// once with no gender.
type EventCatalogEntry struct {
	Name             string
	ScoringType      string
	StandType        string
	IsGendered       bool
	IsPartnered      bool
	PartnerGender    string
	RequiresDualRuns bool
	HasPrelims       bool
}

// CollegeOpenEvents are the traditionally OPEN college events; operators
// may configure any of them as CLOSED for a given tournament.
var CollegeOpenEvents = []EventCatalogEntry{
	{Name: "Axe Throw", ScoringType: "score", StandType: "axe_throw"},
	{Name: "Peavey Log Roll", ScoringType: "time", StandType: "peavey", IsPartnered: true, PartnerGender: "mixed"},
	{Name: "Caber Toss", ScoringType: "distance", StandType: "caber"},
	{Name: "Pulp Toss", ScoringType: "time", StandType: "pulp_toss", IsPartnered: true, PartnerGender: "mixed"},
}

// CollegeClosedEvents count against the per-competitor closed-event cap.
var CollegeClosedEvents = []EventCatalogEntry{
	{Name: "Underhand Hard Hit", ScoringType: "hits", StandType: "underhand", IsGendered: true},
	{Name: "Underhand Speed", ScoringType: "time", StandType: "underhand", IsGendered: true},
	{Name: "Standing Block Hard Hit", ScoringType: "hits", StandType: "standing_block", IsGendered: true},
	{Name: "Standing Block Speed", ScoringType: "time", StandType: "standing_block", IsGendered: true},
	{Name: "Single Buck", ScoringType: "time", StandType: "saw_hand", IsGendered: true},
	{Name: "Double Buck", ScoringType: "time", StandType: "saw_hand", IsGendered: true, IsPartnered: true, PartnerGender: "same"},
	{Name: "Jack & Jill Sawing", ScoringType: "time", StandType: "saw_hand", IsPartnered: true, PartnerGender: "mixed"},
	{Name: "Stock Saw", ScoringType: "time", StandType: "stock_saw", IsGendered: true},
	{Name: "Speed Climb", ScoringType: "time", StandType: "speed_climb", IsGendered: true, RequiresDualRuns: true},
	{Name: "Obstacle Pole", ScoringType: "time", StandType: "obstacle_pole", IsGendered: true},
	{Name: "Chokerman's Race", ScoringType: "time", StandType: "chokerman", IsGendered: true, RequiresDualRuns: true},
	{Name: "Birling", ScoringType: "bracket", StandType: "birling", IsGendered: true},
	{Name: "1-Board Springboard", ScoringType: "time", StandType: "springboard", IsGendered: true},
}

// ProEvents is the Saturday show catalog.
var ProEvents = []EventCatalogEntry{
	{Name: "Springboard", ScoringType: "time", StandType: "springboard"},
	{Name: "Pro 1-Board", ScoringType: "time", StandType: "springboard"},
	{Name: "3-Board Jigger", ScoringType: "time", StandType: "springboard"},
	{Name: "Underhand", ScoringType: "time", StandType: "underhand", IsGendered: true},
	{Name: "Standing Block", ScoringType: "time", StandType: "standing_block", IsGendered: true},
	{Name: "Stock Saw", ScoringType: "time", StandType: "stock_saw", IsGendered: true},
	{Name: "Hot Saw", ScoringType: "time", StandType: "hot_saw"},
	{Name: "Single Buck", ScoringType: "time", StandType: "saw_hand", IsGendered: true},
	{Name: "Double Buck", ScoringType: "time", StandType: "saw_hand", IsGendered: true, IsPartnered: true},
	{Name: "Jack & Jill Sawing", ScoringType: "time", StandType: "saw_hand", IsPartnered: true, PartnerGender: "mixed"},
	{Name: "Partnered Axe Throw", ScoringType: "score", StandType: "axe_throw", IsPartnered: true, HasPrelims: true},
	{Name: "Obstacle Pole", ScoringType: "time", StandType: "obstacle_pole"},
	{Name: "Pole Climb", ScoringType: "time", StandType: "speed_climb"},
	{Name: "Cookie Stack", ScoringType: "time", StandType: "cookie_stack"},
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Server: ServerConfig{
			RequestTimeout: getDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
			WorkerPoolSize: getIntOrDefault("WORKER_POOL_SIZE", 2),
		},
		Database: DatabaseConfig{
			MySQL: MySQLConfig{
				DSN:             getEnvOrDefault("MYSQL_DSN", ""),
				MaxOpenConns:    getIntOrDefault("MYSQL_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    getIntOrDefault("MYSQL_MAX_IDLE_CONNS", 5),
				ConnMaxLifetime: getDurationOrDefault("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute),
			},
			MongoDB: MongoDBConfig{
				URI:      getEnvOrDefault("MONGO_URI", ""),
				Database: getEnvOrDefault("MONGO_DATABASE", "lumberjack_engine"),
			},
			Redis: RedisConfig{
				Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getIntOrDefault("REDIS_DB", 0),
			},
		},
		Tournament: defaultTournamentConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultTournamentConfig carries the stand layouts, placement points,
// and event-category tables the engine's rules key off.
func defaultTournamentConfig() TournamentConfig {
	return TournamentConfig{
		ReportCacheTTL:    getDurationOrDefault("REPORT_CACHE_TTL", 60*time.Second),
		PollCacheTTL:      getDurationOrDefault("POLL_CACHE_TTL", 5*time.Second),
		MinHeatSpacing:    4,
		TargetHeatSpacing: 5,
		HeatsPerFlight:    getIntOrDefault("HEATS_PER_FLIGHT", 8),
		PlacementPoints: map[int]int{
			1: 10, 2: 7, 3: 5, 4: 3, 5: 2, 6: 1,
		},
		StandConfigs: map[string]StandConfig{
			"springboard":    {Total: 4},
			"underhand":      {Total: 5},
			"standing_block": {Total: 5},
			"cookie_stack":   {Total: 5},
			"saw_hand":       {Total: 8},
			"stock_saw":      {Total: 2, SpecificStands: []int{7, 8}},
			"hot_saw":        {Total: 4},
			"obstacle_pole":  {Total: 2},
			"speed_climb":    {Total: 2},
			"chokerman":      {Total: 2},
			"axe_throw":      {Total: 1},
			"caber":          {Total: 1},
			"peavey":         {Total: 1},
			"pulp_toss":      {Total: 1},
			"birling":        {Total: 1},
			"standard":       {Total: 8},
		},
		ClosedEvents: map[string]bool{
			"Standing Block Hard Hit": true,
			"Standing Block Speed":    true,
			"Underhand Hard Hit":      true,
			"Underhand Speed":         true,
			"Single Buck":             true,
			"Double Buck":             true,
			"Jack & Jill Sawing":      true,
			"Stock Saw":               true,
			"Speed Climb":             true,
			"Obstacle Pole":           true,
			"Chokerman's Race":        true,
			"Birling":                 true,
			"1-Board Springboard":     true,
		},
		ChoppingEvents: map[string]bool{
			"Standing Block Hard Hit": true,
			"Standing Block Speed":    true,
			"Underhand Hard Hit":      true,
			"Underhand Speed":         true,
		},
		ListOnlyEvents: map[string]bool{
			"Axe Throw":       true,
			"Peavey Log Roll": true,
			"Caber Toss":      true,
			"Pulp Toss":       true,
		},
	}
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.Database.MySQL.DSN == "" {
		return fmt.Errorf("MYSQL_DSN is required")
	}
	if c.Database.MongoDB.URI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
