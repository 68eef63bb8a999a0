package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	Metrics    MetricsConfig
	Allocation AllocationConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnectTimeout  time.Duration
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	// PushgatewayURL, when non-empty, receives the recorded collectors
	// after each command. The CLI process exits too quickly for a scrape.
	PushgatewayURL string
}

// AllocationConfig tunes the seat allocation engine.
type AllocationConfig struct {
	// DefaultRoomCapacity is the representative capacity used for the
	// rooms-needed estimate when no rooms were supplied at all.
	DefaultRoomCapacity int
	// StudentsPerBench is the bench width assumed when a run does not
	// override it. Zero keeps each room's own layout, so grid-dependent
	// patterns see the true seats per bench.
	StudentsPerBench int
	// MaxSampleUnallocated bounds the sample list carried by an
	// incomplete-allocation report.
	MaxSampleUnallocated int
	// ScopeLockTTL bounds how long a run may hold its scope lock.
	ScopeLockTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),

		ConnectTimeout:  parseDuration(v.GetString("DB_CONNECT_TIMEOUT"), 5*time.Second),
		ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
		ConnMaxIdleTime: parseDuration(v.GetString("DB_CONN_MAX_IDLE_TIME"), 30*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Metrics = MetricsConfig{
		PushgatewayURL: v.GetString("METRICS_PUSHGATEWAY_URL"),
	}

	cfg.Allocation = AllocationConfig{
		DefaultRoomCapacity:  v.GetInt("ALLOCATION_DEFAULT_ROOM_CAPACITY"),
		StudentsPerBench:     v.GetInt("ALLOCATION_STUDENTS_PER_BENCH"),
		MaxSampleUnallocated: v.GetInt("ALLOCATION_MAX_SAMPLE_UNALLOCATED"),
		ScopeLockTTL:         parseDuration(v.GetString("ALLOCATION_SCOPE_LOCK_TTL"), 2*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "exam_seat_allotment")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONNECT_TIMEOUT", "5s")
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "30m")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("METRICS_PUSHGATEWAY_URL", "")

	v.SetDefault("ALLOCATION_DEFAULT_ROOM_CAPACITY", 30)
	v.SetDefault("ALLOCATION_STUDENTS_PER_BENCH", 0)
	v.SetDefault("ALLOCATION_MAX_SAMPLE_UNALLOCATED", 10)
	v.SetDefault("ALLOCATION_SCOPE_LOCK_TTL", "2m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
