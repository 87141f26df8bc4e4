package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server          ServerConfig          `toml:"server"`
	Database        DatabaseConfig        `toml:"database"`
	JWT             JWTConfig             `toml:"jwt"`
	GigaChat        GigaChatConfig        `toml:"gigachat"`
	Embedder        EmbedderConfig        `toml:"embedder"`
	RAG             RAGConfig             `toml:"rag"`
	VerifiedContent VerifiedContentConfig `toml:"verified_content"`
	VectorStore     VectorStoreConfig     `toml:"vectorstore"`
	WebSearch       WebSearchConfig       `toml:"web_search"`
	Store           StoreConfig           `toml:"store"`
	Logger          LoggerConfig          `toml:"logger"`
}

type LoggerConfig struct {
	Level string `toml:"level"`
}

// Durations are read from the environment only (seconds, or hours for JWT).
type ServerConfig struct {
	Port         string        `toml:"port"`
	ReadTimeout  time.Duration `toml:"-"`
	WriteTimeout time.Duration `toml:"-"`
}

type DatabaseConfig struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DBName   string `toml:"dbname"`
	SSLMode  string `toml:"sslmode"`
}

type JWTConfig struct {
	SecretKey  string        `toml:"secret_key"`
	Expiration time.Duration `toml:"-"`
}

type GigaChatConfig struct {
	APIKey             string `toml:"api_key"`
	Scope              string `toml:"scope"`
	Model              string `toml:"model"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// EmbedderConfig selects the embedding backend. Provider is "ollama" or "gigachat".
type EmbedderConfig struct {
	ModelName   string `toml:"model_name"`
	Provider    string `toml:"provider"`
	BaseURL     string `toml:"base_url"`
	BatchSize   int    `toml:"batch_size"`
	Concurrency int    `toml:"concurrency"`
}

type RAGConfig struct {
	TextSplitterType string `toml:"text_splitter_type"`
	ChunkSize        int    `toml:"chunk_size"`
	ChunkOverlap     int    `toml:"chunk_overlap"`
	TopK             int    `toml:"top_k"`
}

type VerifiedContentConfig struct {
	ChunkSize      int    `toml:"chunk_size"`
	CollectionName string `toml:"collection_name"`
	BaseDir        string `toml:"base_dir"`
	IndexOnStartup bool   `toml:"index_on_startup"`
}

// VectorStoreConfig selects where chunks live. Backend is "local" or "postgres".
type VectorStoreConfig struct {
	Backend          string `toml:"backend"`
	PersistDirectory string `toml:"persist_directory"`
}

type WebSearchConfig struct {
	Enabled    bool          `toml:"enabled"`
	BaseURL    string        `toml:"base_url"`
	MaxResults int           `toml:"max_results"`
	Timeout    time.Duration `toml:"-"`
}

// StoreConfig selects the user and learner repositories. Backend is "file" or "postgres".
type StoreConfig struct {
	Backend string `toml:"backend"`
	DataDir string `toml:"data_dir"`
}

// Default returns the configuration used when neither a TOML file nor the
// environment override a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DBName:   "ai_tutor",
			SSLMode:  "disable",
		},
		JWT: JWTConfig{
			SecretKey:  "your-secret-key-change-in-production",
			Expiration: 24 * time.Hour,
		},
		GigaChat: GigaChatConfig{
			Scope:              "GIGACHAT_API_PERS",
			Model:              "GigaChat",
			InsecureSkipVerify: true,
		},
		Embedder: EmbedderConfig{
			ModelName:   "nomic-embed-text",
			Provider:    "ollama",
			BaseURL:     "http://localhost:11434",
			BatchSize:   32,
			Concurrency: 4,
		},
		RAG: RAGConfig{
			TextSplitterType: "recursive_character",
			ChunkSize:        1000,
			ChunkOverlap:     0,
			TopK:             5,
		},
		VerifiedContent: VerifiedContentConfig{
			ChunkSize:      500,
			CollectionName: "verified_content",
			BaseDir:        "resources/verified-course-content",
			IndexOnStartup: true,
		},
		VectorStore: VectorStoreConfig{
			Backend:          "local",
			PersistDirectory: "./data/vectorstore",
		},
		WebSearch: WebSearchConfig{
			Enabled:    true,
			BaseURL:    "http://localhost:8888",
			MaxResults: 5,
			Timeout:    10 * time.Second,
		},
		Store: StoreConfig{
			Backend: "file",
			DataDir: "./data/store",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional TOML file named by
// CONFIG_FILE and finally the environment (including a .env file if present).
func Load() (*Config, error) {
	// .env is optional, plain environment variables work the same way
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvSeconds("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvSeconds("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.JWT.SecretKey = getEnv("JWT_SECRET_KEY", cfg.JWT.SecretKey)
	if hours := getEnvInt("JWT_EXPIRATION_HOURS", 0); hours > 0 {
		cfg.JWT.Expiration = time.Duration(hours) * time.Hour
	}

	cfg.GigaChat.APIKey = getEnv("GIGACHAT_API_KEY", cfg.GigaChat.APIKey)
	cfg.GigaChat.Scope = getEnv("GIGACHAT_SCOPE", cfg.GigaChat.Scope)
	cfg.GigaChat.Model = getEnv("GIGACHAT_MODEL", cfg.GigaChat.Model)
	cfg.GigaChat.InsecureSkipVerify = getEnvBool("GIGACHAT_INSECURE_SKIP_VERIFY", cfg.GigaChat.InsecureSkipVerify)

	cfg.Embedder.ModelName = getEnv("EMBEDDER_MODEL_NAME", cfg.Embedder.ModelName)
	cfg.Embedder.Provider = getEnv("EMBEDDER_PROVIDER", cfg.Embedder.Provider)
	cfg.Embedder.BaseURL = getEnv("EMBEDDER_BASE_URL", cfg.Embedder.BaseURL)
	cfg.Embedder.BatchSize = getEnvInt("EMBEDDER_BATCH_SIZE", cfg.Embedder.BatchSize)
	cfg.Embedder.Concurrency = getEnvInt("EMBEDDER_CONCURRENCY", cfg.Embedder.Concurrency)

	cfg.RAG.TextSplitterType = getEnv("RAG_TEXT_SPLITTER_TYPE", cfg.RAG.TextSplitterType)
	cfg.RAG.ChunkSize = getEnvInt("RAG_CHUNK_SIZE", cfg.RAG.ChunkSize)
	cfg.RAG.ChunkOverlap = getEnvInt("RAG_CHUNK_OVERLAP", cfg.RAG.ChunkOverlap)
	cfg.RAG.TopK = getEnvInt("RAG_TOP_K", cfg.RAG.TopK)

	cfg.VerifiedContent.ChunkSize = getEnvInt("VERIFIED_CONTENT_CHUNK_SIZE", cfg.VerifiedContent.ChunkSize)
	cfg.VerifiedContent.CollectionName = getEnv("VERIFIED_CONTENT_COLLECTION_NAME", cfg.VerifiedContent.CollectionName)
	cfg.VerifiedContent.BaseDir = getEnv("VERIFIED_CONTENT_DIR", cfg.VerifiedContent.BaseDir)
	cfg.VerifiedContent.IndexOnStartup = getEnvBool("VERIFIED_CONTENT_INDEX_ON_STARTUP", cfg.VerifiedContent.IndexOnStartup)

	cfg.VectorStore.Backend = getEnv("VECTORSTORE_BACKEND", cfg.VectorStore.Backend)
	cfg.VectorStore.PersistDirectory = getEnv("VECTORSTORE_PERSIST_DIRECTORY", cfg.VectorStore.PersistDirectory)

	cfg.WebSearch.Enabled = getEnvBool("WEB_SEARCH_ENABLED", cfg.WebSearch.Enabled)
	cfg.WebSearch.BaseURL = getEnv("WEB_SEARCH_URL", cfg.WebSearch.BaseURL)
	cfg.WebSearch.MaxResults = getEnvInt("WEB_SEARCH_MAX_RESULTS", cfg.WebSearch.MaxResults)
	cfg.WebSearch.Timeout = getEnvSeconds("WEB_SEARCH_TIMEOUT", cfg.WebSearch.Timeout)

	cfg.Store.Backend = getEnv("STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.DataDir = getEnv("STORE_DATA_DIR", cfg.Store.DataDir)

	cfg.Logger.Level = getEnv("LOG_LEVEL", cfg.Logger.Level)
}

// Validate rejects settings that would fail later at construction time.
func (c *Config) Validate() error {
	switch c.VectorStore.Backend {
	case "local", "postgres":
	default:
		return fmt.Errorf("unknown vectorstore backend %q", c.VectorStore.Backend)
	}
	switch c.Store.Backend {
	case "file", "postgres":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.VerifiedContent.CollectionName == "" {
		return fmt.Errorf("verified_content.collection_name must not be empty")
	}
	if c.VerifiedContent.ChunkSize <= 0 {
		return fmt.Errorf("verified_content.chunk_size must be positive, got %d", c.VerifiedContent.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 {
		return fmt.Errorf("rag.chunk_overlap must not be negative, got %d", c.RAG.ChunkOverlap)
	}
	return nil
}

// UsesPostgres reports whether any configured backend needs a database pool.
func (c *Config) UsesPostgres() bool {
	return c.VectorStore.Backend == "postgres" || c.Store.Backend == "postgres"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true"
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	seconds := getEnvInt(key, -1)
	if seconds < 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
