package quizsmith

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when a component needs a key that is not configured
var ErrMissingAPIKey = errors.New("missing API key")

// Config holds application configuration loaded from .env, config files and the environment
type Config struct {
	Env           string          `mapstructure:"app_env"`
	DataDir       string          `mapstructure:"data_dir"`    // PDFs to ingest
	DBPath        string          `mapstructure:"db_path"`     // SQLite file with chunks and attempts
	BatchesDir    string          `mapstructure:"batches_dir"` // where mcqs_*.json files live
	LogDir        string          `mapstructure:"log_dir"`     // LLM transcripts
	Collection    string          `mapstructure:"collection"`
	ServerAddr    string          `mapstructure:"server_addr"`
	SessionSecret string          `mapstructure:"session_secret"`
	LLM           EndpointConfig  `mapstructure:"llm"`
	Embeddings    EndpointConfig  `mapstructure:"embeddings"`
	Chunking      ChunkingConfig  `mapstructure:"chunking"`
	Generation    GenerationLimit `mapstructure:"generation"`
}

// EndpointConfig describes an OpenAI-compatible API endpoint
type EndpointConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// ChunkingConfig controls how ingested pages are split
type ChunkingConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// GenerationLimit bounds generation requests
type GenerationLimit struct {
	DefaultQuestions int `mapstructure:"default_questions"`
	MaxQuestions     int `mapstructure:"max_questions"`
	DefaultChunks    int `mapstructure:"default_chunks"`
	MaxContentChars  int `mapstructure:"max_content_chars"`
}

// LoadConfig reads configuration. Values come from, in increasing priority:
// defaults, ./config.yaml or ./config/config.yaml, .env, and the environment.
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("app_env", "local")
	v.SetDefault("data_dir", "data")
	v.SetDefault("db_path", "quizsmith.db")
	v.SetDefault("batches_dir", ".")
	v.SetDefault("log_dir", "log")
	v.SetDefault("collection", "pdf_collection")
	v.SetDefault("server_addr", ":5000")
	v.SetDefault("session_secret", "quiz-smith-secret-key")
	v.SetDefault("llm.base_url", "https://router.huggingface.co/v1")
	v.SetDefault("llm.model", "Qwen/Qwen3-14B")
	v.SetDefault("embeddings.base_url", "https://router.huggingface.co/v1")
	v.SetDefault("embeddings.model", "BAAI/bge-base-en-v1.5")
	v.SetDefault("chunking.size", 500)
	v.SetDefault("chunking.overlap", 50)
	v.SetDefault("generation.default_questions", 5)
	v.SetDefault("generation.max_questions", 10)
	v.SetDefault("generation.default_chunks", 8)
	v.SetDefault("generation.max_content_chars", 3000)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// names kept from the original .env files
	_ = v.BindEnv("llm.api_key", "HF_LLM_API_KEY")
	_ = v.BindEnv("embeddings.api_key", "HF_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// RequireLLM checks that the chat completion endpoint has credentials
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: set HF_LLM_API_KEY in the environment or .env", ErrMissingAPIKey)
	}
	return nil
}

// RequireEmbeddings checks that the embeddings endpoint has credentials
func (c *Config) RequireEmbeddings() error {
	if c.Embeddings.APIKey == "" {
		return fmt.Errorf("%w: set HF_API_KEY in the environment or .env", ErrMissingAPIKey)
	}
	return nil
}
