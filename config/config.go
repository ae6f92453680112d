package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir   string `json:"project_dir"`
	ResultsDir   string `json:"results_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`

	// HTTP client behaviour shared by all vendor fetchers.
	HTTPTimeout  time.Duration `json:"http_timeout"`
	UserAgent    string        `json:"user_agent"`
	CacheEnabled bool          `json:"cache_enabled"`

	// LLM verification backend.
	LLMProvider    string `json:"llm_provider"`
	DeepSeekAPIKey string `json:"deepseek_api_key"`
	DeepSeekModel  string `json:"deepseek_model"`
	OpenAIBaseURL  string `json:"openai_base_url"`
	OpenAIAPIKey   string `json:"openai_api_key"`

	Debug bool `json:"debug"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		ProjectDir:   currentDir,
		ResultsDir:   filepath.Join(currentDir, "results"),
		DataDir:      filepath.Join(currentDir, "data"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),

		HTTPTimeout:  30 * time.Second,
		UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		CacheEnabled: true,

		LLMProvider:   "deepseek",
		DeepSeekModel: "deepseek-chat",
		OpenAIBaseURL: "https://api.deepseek.com/v1",

		Debug: false,
	}

	// Load environment variables from .env file
	_ = godotenv.Load()

	// Override with environment variables if they exist
	cfg.loadFromEnv()

	return cfg
}

// DefaultConfigWithRoot anchors the working directories under root.
func DefaultConfigWithRoot(root string) *Config {
	cfg := DefaultConfig()
	cfg.ProjectDir = root
	cfg.ResultsDir = filepath.Join(root, "results")
	cfg.DataDir = filepath.Join(root, "data")
	cfg.DataCacheDir = filepath.Join(root, "data", "cache")
	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}

	if val := os.Getenv("HTTP_TIMEOUT_SECONDS"); val != "" {
		if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
			c.HTTPTimeout = time.Duration(secs) * time.Second
		}
	}
	if val := os.Getenv("FINSIGHT_USER_AGENT"); val != "" {
		c.UserAgent = val
	}
	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if cache, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = cache
		}
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("DEEPSEEK_MODEL"); val != "" {
		c.DeepSeekModel = val
	}
	if val := os.Getenv("OPENAI_BASE_URL"); val != "" {
		c.OpenAIBaseURL = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}

	if val := os.Getenv("FINSIGHT_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir, c.DataDir, c.DataCacheDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	switch c.LLMProvider {
	case "deepseek", "openai":
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.LLMProvider)
	}
	return nil
}
