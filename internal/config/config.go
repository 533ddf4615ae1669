package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every configuration section of the service.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Pipeline  PipelineConfig
	Retrieval RetrievalConfig
	Store     StoreConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	pipeline, err := loadPipelineConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Pipeline:  pipeline,
		Retrieval: loadRetrievalConfig(),
		Store:     loadStoreConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the chat model backing generation and the
// clarification/guardrail classifiers.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether the required model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("model credentials missing: provide ARK_API_KEY + ARK_MODEL, or AK/SK")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// PipelineConfig carries the turn/retry policy and deployment filters.
type PipelineConfig struct {
	MaxClarifications  int
	RetrievalK         int
	RetrievalRetryMax  int
	GenerationRetryMax int
	TurnDeadline       time.Duration
	DefaultLanguage    string
	Jurisprudence      string
	Country            string
	Categories         string
	GuardrailEnabled   bool
	MaxConcurrentTurns int
}

// FilterMap assembles the raw deployment filter map validated by the
// retrieval package at startup.
func (c PipelineConfig) FilterMap() map[string]string {
	raw := make(map[string]string, 3)
	if c.Jurisprudence != "" {
		raw["jurisprudence"] = c.Jurisprudence
	}
	if c.Country != "" {
		raw["country"] = c.Country
	}
	if c.Categories != "" {
		raw["category"] = c.Categories
	}
	return raw
}

func loadPipelineConfig() (PipelineConfig, error) {
	maxClarifications, err := parseIntEnv("XAMSADINE_MAX_CLARIFICATIONS", 3)
	if err != nil {
		return PipelineConfig{}, err
	}
	retrievalK, err := parseIntEnv("XAMSADINE_RETRIEVAL_K", 12)
	if err != nil {
		return PipelineConfig{}, err
	}
	retrievalRetryMax, err := parseIntEnv("XAMSADINE_RETRIEVAL_RETRY_MAX", 2)
	if err != nil {
		return PipelineConfig{}, err
	}
	generationRetryMax, err := parseIntEnv("XAMSADINE_GENERATION_RETRY_MAX", 1)
	if err != nil {
		return PipelineConfig{}, err
	}
	turnDeadlineMS, err := parseIntEnv("XAMSADINE_TURN_DEADLINE_MS", 30000)
	if err != nil {
		return PipelineConfig{}, err
	}
	guardrail, err := parseBoolEnv("XAMSADINE_GUARDRAIL", true)
	if err != nil {
		return PipelineConfig{}, err
	}
	maxConcurrent, err := parseIntEnv("XAMSADINE_MAX_CONCURRENT_TURNS", 16)
	if err != nil {
		return PipelineConfig{}, err
	}

	return PipelineConfig{
		MaxClarifications:  maxClarifications,
		RetrievalK:         retrievalK,
		RetrievalRetryMax:  retrievalRetryMax,
		GenerationRetryMax: generationRetryMax,
		TurnDeadline:       time.Duration(turnDeadlineMS) * time.Millisecond,
		DefaultLanguage:    getEnvOrDefault("XAMSADINE_DEFAULT_LANGUAGE", "fr"),
		Jurisprudence:      getEnvOrDefault("XAMSADINE_JURISPRUDENCE", "maliki"),
		Country:            getEnvOrDefault("XAMSADINE_COUNTRY", "sn"),
		Categories:         strings.TrimSpace(os.Getenv("XAMSADINE_CATEGORIES")),
		GuardrailEnabled:   guardrail,
		MaxConcurrentTurns: maxConcurrent,
	}, nil
}

// RetrievalConfig selects the retrieval backend: the rag-service URL
// when set, otherwise an in-memory corpus loaded from CorpusPath.
type RetrievalConfig struct {
	ServiceURL string
	CorpusPath string
}

func loadRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		ServiceURL: strings.TrimSpace(os.Getenv("XAMSADINE_RETRIEVAL_URL")),
		CorpusPath: strings.TrimSpace(os.Getenv("XAMSADINE_CORPUS_PATH")),
	}
}

// StoreConfig selects the session store backend: sqlite when a path is
// set, otherwise in-memory.
type StoreConfig struct {
	SQLitePath string
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		SQLitePath: strings.TrimSpace(os.Getenv("XAMSADINE_SQLITE_PATH")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
