package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for InsightBot.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    yaml:"server"`
	Engine    EngineConfig    `mapstructure:"engine"    yaml:"engine"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Proxy     ProxyConfig     `mapstructure:"proxy"     yaml:"proxy"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Sentiment SentimentConfig `mapstructure:"sentiment" yaml:"sentiment"`
	Dataset   DatasetConfig   `mapstructure:"dataset"   yaml:"dataset"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// ServerConfig controls the browse web surface.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"          yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// EngineConfig controls the scrape job engine.
type EngineConfig struct {
	Concurrency      int           `mapstructure:"concurrency"        yaml:"concurrency"`
	QueueSize        int           `mapstructure:"queue_size"         yaml:"queue_size"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"    yaml:"request_timeout"`
	JobTimeout       time.Duration `mapstructure:"job_timeout"        yaml:"job_timeout"`
	MaxArticles      int           `mapstructure:"max_articles"       yaml:"max_articles"`
	PolitenessDelay  time.Duration `mapstructure:"politeness_delay"   yaml:"politeness_delay"`
	RespectRobotsTxt bool          `mapstructure:"respect_robots_txt" yaml:"respect_robots_txt"`
	UserAgents       []string      `mapstructure:"user_agents"        yaml:"user_agents"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	Stealth         bool          `mapstructure:"stealth"           yaml:"stealth"`
}

// ProxyConfig controls proxy rotation.
type ProxyConfig struct {
	Enabled  bool     `mapstructure:"enabled"  yaml:"enabled"`
	Rotation string   `mapstructure:"rotation" yaml:"rotation"`
	URLs     []string `mapstructure:"urls"     yaml:"urls"`
}

// StorageConfig selects and configures the article store.
type StorageConfig struct {
	Type       string        `mapstructure:"type"        yaml:"type"`
	MongoURI   string        `mapstructure:"mongo_uri"   yaml:"mongo_uri"`
	Database   string        `mapstructure:"database"    yaml:"database"`
	Collection string        `mapstructure:"collection"  yaml:"collection"`
	SQLitePath string        `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	Timeout    time.Duration `mapstructure:"timeout"     yaml:"timeout"`
}

// SentimentConfig controls the non-English star-rating model.
type SentimentConfig struct {
	Provider string        `mapstructure:"provider"  yaml:"provider"`
	Endpoint string        `mapstructure:"endpoint"  yaml:"endpoint"`
	Model    string        `mapstructure:"model"     yaml:"model"`
	APIKey   string        `mapstructure:"api_key"   yaml:"api_key"`
	MaxChars int           `mapstructure:"max_chars" yaml:"max_chars"`
	Timeout  time.Duration `mapstructure:"timeout"   yaml:"timeout"`
}

// DatasetConfig controls the batch harvester.
type DatasetConfig struct {
	FeedsFile       string        `mapstructure:"feeds_file"       yaml:"feeds_file"`
	PerFeedLimit    int           `mapstructure:"per_feed_limit"   yaml:"per_feed_limit"`
	OutputDir       string        `mapstructure:"output_dir"       yaml:"output_dir"`
	PreprocessedDir string        `mapstructure:"preprocessed_dir" yaml:"preprocessed_dir"`
	UserAgent       string        `mapstructure:"user_agent"       yaml:"user_agent"`
	FeedTimeout     time.Duration `mapstructure:"feed_timeout"     yaml:"feed_timeout"`
	ArticleTimeout  time.Duration `mapstructure:"article_timeout"  yaml:"article_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":5000",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Engine: EngineConfig{
			Concurrency:      4,
			QueueSize:        64,
			RequestTimeout:   20 * time.Second,
			JobTimeout:       15 * time.Minute,
			MaxArticles:      100,
			PolitenessDelay:  250 * time.Millisecond,
			RespectRobotsTxt: true,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			Stealth:         true,
		},
		Proxy: ProxyConfig{
			Enabled:  false,
			Rotation: "round_robin",
		},
		Storage: StorageConfig{
			Type:       "mongodb",
			MongoURI:   "mongodb://localhost:27017",
			Database:   "insightbot",
			Collection: "articles",
			SQLitePath: "./data/insightbot.db",
			Timeout:    10 * time.Second,
		},
		Sentiment: SentimentConfig{
			Provider: "huggingface",
			Endpoint: "https://api-inference.huggingface.co/models/nlptown/bert-base-multilingual-uncased-sentiment",
			Model:    "nlptown/bert-base-multilingual-uncased-sentiment",
			MaxChars: 512,
			Timeout:  30 * time.Second,
		},
		Dataset: DatasetConfig{
			PerFeedLimit:    20,
			OutputDir:       "./data/extracted",
			PreprocessedDir: "./data/preprocessed",
			UserAgent:       "InsightBot/1.0",
			FeedTimeout:     15 * time.Second,
			ArticleTimeout:  20 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
