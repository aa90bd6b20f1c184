package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by PATHWISE_ENV (or .env by
// default), then loads the corresponding .secret sidecar if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("PATHWISE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; env vars may come from the environment.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL returns the PostgreSQL connection string. Empty means run
// without persistence.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// APIKey returns the static bearer token protecting the /v1 routes.
// Empty disables auth, for local development only.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// RandomSeed seeds protocol execution randomness. Unset means seed from
// the current time.
func RandomSeed() (int64, bool) {
	seed, err := strconv.ParseInt(os.Getenv("RANDOM_SEED"), 10, 64)
	if err != nil {
		return 0, false
	}
	return seed, true
}

// SessionCapacity bounds the number of resident sessions.
// Defaults to 256 if not set.
func SessionCapacity() int {
	n, err := strconv.Atoi(os.Getenv("SESSION_CAPACITY"))
	if err != nil || n <= 0 {
		return 256
	}
	return n
}
