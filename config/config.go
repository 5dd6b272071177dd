package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string

	// Translation provider configuration
	DeepLToken   string
	DeepLAPIURL  string // free tier vs paid tier base URL
	OpenAIToken  string
	OpenAIAPIURL string
	OpenAIModel  string

	// Storage configuration
	DataDir string // root directory for per-guild JSON state

	// Relay configuration
	WebhookName       string // name of the webhooks the relay creates and reuses
	MirrorRecordCap   int    // LRU cap for mirror records per guild
	RelayQueueSize    int    // bounded per-source event queue length
	ProviderTimeout   time.Duration
	DiscordTimeout    time.Duration
	WebhookErrorEvery time.Duration // minimum interval between repeated webhook permission errors per channel

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
				instance.DiscordToken = "test-token"
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DiscordToken: os.Getenv("DISCORD_TOKEN"),

		DeepLToken:   os.Getenv("DEEPL_TOKEN"),
		DeepLAPIURL:  getEnvWithDefault("DEEPL_API_URL", "https://api-free.deepl.com/v2"),
		OpenAIToken:  os.Getenv("OPENAI_TOKEN"),
		OpenAIAPIURL: getEnvWithDefault("OPENAI_API_URL", "https://api.openai.com/v1"),
		OpenAIModel:  getEnvWithDefault("OPENAI_MODEL", "gpt-4o-mini"),

		DataDir: getEnvWithDefault("DATA_DIR", "data"),

		WebhookName:       getEnvWithDefault("RELAY_WEBHOOK_NAME", "Catcord"),
		MirrorRecordCap:   1024,
		RelayQueueSize:    256,
		ProviderTimeout:   30 * time.Second,
		DiscordTimeout:    15 * time.Second,
		WebhookErrorEvery: 10 * time.Minute,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if capStr := os.Getenv("MIRROR_RECORD_CAP"); capStr != "" {
		if parsed, err := strconv.Atoi(capStr); err == nil && parsed > 0 {
			config.MirrorRecordCap = parsed
		}
	}
	if size := os.Getenv("RELAY_QUEUE_SIZE"); size != "" {
		if parsed, err := strconv.Atoi(size); err == nil && parsed > 0 {
			config.RelayQueueSize = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DeepLToken == "" && config.OpenAIToken == "" {
			return nil, fmt.Errorf("at least one of DEEPL_TOKEN or OPENAI_TOKEN is required")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:       "test",
		DataDir:           os.TempDir(),
		WebhookName:       "Catcord",
		MirrorRecordCap:   64,
		RelayQueueSize:    16,
		ProviderTimeout:   5 * time.Second,
		DiscordTimeout:    5 * time.Second,
		WebhookErrorEvery: time.Minute,
	}
}
