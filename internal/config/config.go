package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Queues     QueuesConfig     `mapstructure:"queues"`
	Downloader DownloaderConfig `mapstructure:"downloader"`
	Transcribe TranscribeConfig `mapstructure:"transcribe"`
	Sentiment  SentimentConfig  `mapstructure:"sentiment"`
	ZeroShot   ZeroShotConfig   `mapstructure:"zeroshot"`
	Features   FeaturesConfig   `mapstructure:"features"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type StorageConfig struct {
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Container string `mapstructure:"container"`
	Region    string `mapstructure:"region"`
}

// QueuesConfig names the three pipeline queues and sets the retry and
// redelivery behavior shared by their consumers.
type QueuesConfig struct {
	New               string        `mapstructure:"new"`
	Downloaded        string        `mapstructure:"downloaded"`
	Transcribed       string        `mapstructure:"transcribed"`
	MaxDequeueCount   int           `mapstructure:"max_dequeue_count"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	VisibilityTimeout time.Duration `mapstructure:"visibility_timeout"`
}

type DownloaderConfig struct {
	YtDlpPath     string   `mapstructure:"ytdlp_path"`
	SubtitleLangs []string `mapstructure:"subtitle_langs"`
}

type TranscribeConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
}

type SentimentConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
}

type ZeroShotConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	// Threshold is the minimum zero-shot confidence for assigning a
	// sentence to a feature bucket. Canonical value is 0.3.
	Threshold float64 `mapstructure:"threshold"`
}

// FeaturesConfig lists the candidate feature labels sentences are
// classified against, and the device they describe. An empty list
// disables per-feature classification entirely.
type FeaturesConfig struct {
	Device string   `mapstructure:"device"`
	Labels []string `mapstructure:"labels"`
}

// DSNString returns the connection string for the configured driver.
func (c *DatabaseConfig) DSNString() string {
	if c.DSN != "" {
		return c.DSN
	}
	return c.Path
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/vidsent.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.container", "results")
	v.SetDefault("queues.new", "new-queue")
	v.SetDefault("queues.downloaded", "downloaded-queue")
	v.SetDefault("queues.transcribed", "transcribed-queue")
	v.SetDefault("queues.max_dequeue_count", 5)
	v.SetDefault("queues.poll_interval", time.Second)
	v.SetDefault("queues.visibility_timeout", 30*time.Second)
	v.SetDefault("downloader.ytdlp_path", "yt-dlp")
	v.SetDefault("downloader.subtitle_langs", []string{"en"})
	v.SetDefault("transcribe.base_url", "http://localhost:9010/v1")
	v.SetDefault("transcribe.model", "whisper-1")
	v.SetDefault("sentiment.base_url", "http://localhost:9020")
	v.SetDefault("sentiment.model", "distilbert-base-uncased-finetuned-sst-2-english")
	v.SetDefault("zeroshot.base_url", "http://localhost:9020")
	v.SetDefault("zeroshot.model", "facebook/bart-large-mnli")
	v.SetDefault("zeroshot.threshold", 0.3)
	v.SetDefault("features.device", "smartphone")
	v.SetDefault("features.labels", []string{
		"battery", "camera", "screen", "performance", "speakers", "design", "software",
	})

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for deploy-time overrides
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.use_ssl", "STORAGE_USE_SSL")
	v.BindEnv("storage.container", "RESULTS_CONTAINER")
	v.BindEnv("queues.new", "NEW_QUEUE")
	v.BindEnv("queues.downloaded", "DOWNLOADED_QUEUE")
	v.BindEnv("queues.transcribed", "TRANSCRIBED_QUEUE")
	v.BindEnv("queues.max_dequeue_count", "MAX_DEQUEUE_COUNT")
	v.BindEnv("transcribe.api_key", "TRANSCRIBE_API_KEY")
	v.BindEnv("sentiment.api_key", "SENTIMENT_API_KEY")
	v.BindEnv("zeroshot.api_key", "ZEROSHOT_API_KEY")
	v.BindEnv("zeroshot.threshold", "FEATURE_THRESHOLD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
