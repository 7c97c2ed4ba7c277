package config

import "os"

type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        string

	// LLM providers, tried in order: OpenRouter first, SambaNova second.
	// Leaving both keys empty disables the LLM path; the deterministic
	// fallback recommender still answers every request.
	OpenRouterAPIKey string
	OpenRouterModel  string
	SambaNovaAPIKey  string
	SambaNovaAPIURL  string
	SambaNovaModel   string
}

func Load() *Config {
	return &Config{
		DatabaseURL:      getEnv("DATABASE_URL", "stride.db"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		Port:             getEnv("PORT", "8080"),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", "deepseek/deepseek-r1-zero:free"),
		SambaNovaAPIKey:  getEnv("SAMBANOVA_API_KEY", ""),
		SambaNovaAPIURL:  getEnv("SAMBANOVA_API_URL", "https://api.sambanova.ai/v1"),
		SambaNovaModel:   getEnv("SAMBANOVA_MODEL", "Meta-Llama-3.1-405B-Instruct"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
