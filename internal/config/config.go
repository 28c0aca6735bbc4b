package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects every knob the service reads from the environment.
// Defaults match a local docker-compose setup.
type Config struct {
	Port string

	RedisAddr string
	RedisDB   int

	// StoreDriver selects the durable conversation backend: "mongo" or "postgres".
	StoreDriver string
	MongoURI    string
	MongoDB     string
	PostgresDSN string

	// ModelProvider selects the generation backend: "gemini", "openai" or "mock".
	ModelProvider string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string

	ModelTimeout time.Duration

	KnowledgeDir string
	ObserverURL  string
}

func Load() Config {
	return Config{
		Port: getenv("PORT", "8080"),

		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getint("REDIS_DB", 0),

		StoreDriver: getenv("STORE_DRIVER", "mongo"),
		MongoURI:    getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getenv("MONGO_DB", "tickets_db"),
		PostgresDSN: os.Getenv("DATABASE_URL"),

		ModelProvider: getenv("MODEL_PROVIDER", "gemini"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getenv("GEMINI_MODEL", "gemini-2.5-pro"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),

		ModelTimeout: getdur("MODEL_REQUEST_TIMEOUT", 25*time.Second),

		KnowledgeDir: getenv("KNOWLEDGE_DIR", "data/knowledge"),
		ObserverURL:  os.Getenv("OBSERVER_URL"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getdur(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
