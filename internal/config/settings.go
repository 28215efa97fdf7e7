package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Settings is the fully-parsed, range-validated runtime configuration for
// harveyagent. Each field has a documented default; an out-of-range or
// unparsable environment value falls back to that default with a logged
// warning, the same "parse, validate range, warn and fall back" idiom the
// teacher uses for AGENT_MAX_STEPS.
type Settings struct {
	WebHost string
	WebPort string

	LLMProvider string // "openai" | "anthropic"
	LLMBaseURL  string
	LLMModel    string
	LLMAPIKey   string

	AnalysisBaseURL  string
	ExtractorBaseURL string
	ExtractorModel   string

	AgentStepBudget  int
	AgentStepTimeout time.Duration

	CacheBackend            string // "memory" | "redis"
	CacheMaxEntries          int
	CacheTTL                 time.Duration
	CacheCooldownAfterError  time.Duration
	RedisAddr                string

	SessionTTL      time.Duration
	SessionMaxTurns int

	BlobStoreDir     string
	BlobStoreMaxSize int64

	BusBufferSize int

	MCPServe     bool   // when true, also expose the tool registry over MCP via stdio
	MCPConfigPath string // mcp.json listing external MCP servers to connect to as a client
}

// Load reads Settings from the process environment, after LoadEnv has had a
// chance to populate it from a .env file.
func Load() Settings {
	return Settings{
		WebHost: getString("WEB_HOST", "127.0.0.1"),
		WebPort: getString("WEB_PORT", "8080"),

		LLMProvider: getString("LLM_PROVIDER", "openai"),
		LLMBaseURL:  getString("LLM_BASE_URL", ""),
		LLMModel:    getString("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:   getString("LLM_API_KEY", ""),

		AnalysisBaseURL:  getString("ANALYSIS_BASE_URL", "http://localhost:9001"),
		ExtractorBaseURL: getString("EXTRACTOR_BASE_URL", "http://localhost:9002"),
		ExtractorModel:   getString("EXTRACTOR_MODEL", "gpt-4o-mini"),

		AgentStepBudget:  getIntRange("AGENT_STEP_BUDGET", 8, 1, 16),
		AgentStepTimeout: getDurationSeconds("AGENT_STEP_TIMEOUT_SECONDS", 90, 1, 600),

		CacheBackend:            getString("CACHE_BACKEND", "memory"),
		CacheMaxEntries:         getIntRange("CACHE_MAX_ENTRIES", 256, 1, 100_000),
		CacheTTL:                getDurationMinutes("CACHE_TTL_MINUTES", 24*60, 1, 7*24*60),
		CacheCooldownAfterError: getDurationMinutes("CACHE_ERROR_COOLDOWN_MINUTES", 5, 1, 1440),
		RedisAddr:               getString("REDIS_ADDR", "localhost:6379"),

		SessionTTL:      getDurationMinutes("SESSION_TTL_MINUTES", 30, 1, 1440),
		SessionMaxTurns: getIntRange("SESSION_MAX_TURNS", 10, 1, 1000),

		BlobStoreDir:     getString("BLOB_STORE_DIR", "./blob_store"),
		BlobStoreMaxSize: getInt64Range("BLOB_STORE_MAX_SIZE_BYTES", 1<<20, 1024, 100<<20),

		BusBufferSize: getIntRange("BUS_BUFFER_SIZE", 64, 1, 10_000),

		MCPServe:      getBool("MCP_SERVE", false),
		MCPConfigPath: getString("MCP_CONFIG_PATH", "mcp.json"),
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntRange(key string, def, min, max int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		log.Printf("[Config] WARNING: invalid %s=%q (must be %d-%d), using default %d", key, v, min, max, def)
		return def
	}
	return n
}

func getInt64Range(key string, def, min, max int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < min || n > max {
		log.Printf("[Config] WARNING: invalid %s=%q (must be %d-%d), using default %d", key, v, min, max, def)
		return def
	}
	return n
}

func getDurationSeconds(key string, defSeconds, minSeconds, maxSeconds int) time.Duration {
	return time.Duration(getIntRange(key, defSeconds, minSeconds, maxSeconds)) * time.Second
}

func getDurationMinutes(key string, defMinutes, minMinutes, maxMinutes int) time.Duration {
	return time.Duration(getIntRange(key, defMinutes, minMinutes, maxMinutes)) * time.Minute
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[Config] WARNING: invalid %s=%q (must be true/false), using default %t", key, v, def)
		return def
	}
	return b
}
