package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// FirstSeasonYear is the September start of the venue's first season.
// Season N runs September of FirstSeasonYear+N-1 through the following August.
const FirstSeasonYear = 1995

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	UpcomingFeedURL string
	PastFeedURL     string
	UserAgent       string

	PageTimeout   time.Duration
	DetailTimeout time.Duration
	ImageTimeout  time.Duration
	RequestPause  time.Duration
	PagePause     time.Duration

	ExpectedAudience   int
	RequiredVolunteers int

	ImagesDir     string
	CSVOutputPath string
	DebugDir      string
	ChromeBin     string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "bds"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "bds123"),
		PostgresDB:       getEnv("POSTGRES_DB", "bds_events"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		UpcomingFeedURL: getEnv("UPCOMING_FEED_URL", "https://www.baiedessinges.com/programme/liste/"),
		PastFeedURL:     getEnv("PAST_FEED_URL", "https://www.baiedessinges.com/programme/liste/evenements-passes/"),
		UserAgent: getEnv("SCRAPER_USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),

		PageTimeout:   getEnvDuration("PAGE_TIMEOUT", 30*time.Second),
		DetailTimeout: getEnvDuration("DETAIL_TIMEOUT", 15*time.Second),
		ImageTimeout:  getEnvDuration("IMAGE_TIMEOUT", 10*time.Second),
		RequestPause:  getEnvDuration("REQUEST_PAUSE", 500*time.Millisecond),
		PagePause:     getEnvDuration("PAGE_PAUSE", time.Second),

		ExpectedAudience:   getEnvInt("DEFAULT_EXPECTED_AUDIENCE", 100),
		RequiredVolunteers: getEnvInt("DEFAULT_REQUIRED_VOLUNTEERS", 5),

		ImagesDir:     getEnv("IMAGES_DIR", "./public/images/events"),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_events.csv"),
		DebugDir:      getEnv("DEBUG_DIR", "."),
		ChromeBin:     getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
