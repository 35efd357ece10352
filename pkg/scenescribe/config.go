package scenescribe

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/blob"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/video"
)

// EnvPrefix is prepended to every environment variable read by LoadConfig.
const EnvPrefix = "SCENESCRIBE_"

type Config struct {
	DataDir     string `env:"DATA_DIR"     envDefault:"data"`
	DBPath      string `env:"DB_PATH"      envDefault:"data/scenescribe.sqlite3"`
	TempDir     string `env:"TEMP_DIR"     envDefault:"/tmp/scenescribe"`
	FFmpegPath  string `env:"FFMPEG_PATH"  envDefault:"ffmpeg"`
	FFprobePath string `env:"FFPROBE_PATH" envDefault:"ffprobe"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`

	FrameThreshold          float64 `env:"FRAME_THRESHOLD"            envDefault:"0.9"`
	FrameSampleIntervalSecs float64 `env:"FRAME_SAMPLE_INTERVAL_SECS" envDefault:"1.0"`
	FrameFormat             string  `env:"FRAME_FORMAT"               envDefault:"jpg"`
	JPEGQuality             int     `env:"JPEG_QUALITY"               envDefault:"90"`

	AdaptiveThreshold      float64 `env:"ADAPTIVE_THRESHOLD"        envDefault:"3.0"`
	MinContentValue        float64 `env:"MIN_CONTENT_VALUE"         envDefault:"15.0"`
	AdaptiveWindowWidth    int     `env:"ADAPTIVE_WINDOW_WIDTH"     envDefault:"2"`
	MinSceneLengthSecs     float64 `env:"MIN_SCENE_LENGTH_SECS"     envDefault:"2"`
	SSIMThreshold          float64 `env:"SSIM_THRESHOLD"            envDefault:"0.5"`
	SSIMSampleIntervalSecs float64 `env:"SSIM_SAMPLE_INTERVAL_SECS" envDefault:"0.5"`
	ToleranceSecs          float64 `env:"TOLERANCE_SECS"            envDefault:"0.5"`

	BlobBackend    string `env:"BLOB_BACKEND"     envDefault:"local"`
	BlobRoot       string `env:"BLOB_ROOT"        envDefault:"data/blobs"`
	MinIOEndpoint  string `env:"MINIO_ENDPOINT"   envDefault:"localhost:9000"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL"    envDefault:"false"`
	MinIOBucket    string `env:"MINIO_BUCKET"     envDefault:"scenescribe"`

	YTDLPAutoInstall   bool   `env:"YTDLP_AUTO_INSTALL"   envDefault:"false"`
	CookiesFromBrowser string `env:"COOKIES_FROM_BROWSER"`

	MetricsPort  int    `env:"METRICS_PORT"  envDefault:"0"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT"`

	Logger     Logger       `env:"-"`
	Catalog    Catalog      `env:"-"`
	Blob       blob.Storage `env:"-"`
	Opener     video.Opener `env:"-"`
	Downloader Downloader   `env:"-"`
}

type Option func(*Config)

func WithDataDir(dir string) Option {
	return func(c *Config) {
		c.DataDir = dir
	}
}

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithCatalog(catalog Catalog) Option {
	return func(c *Config) {
		c.Catalog = catalog
	}
}

func WithBlobStorage(store blob.Storage) Option {
	return func(c *Config) {
		c.Blob = store
	}
}

// WithOpener replaces the ffmpeg decoder.
func WithOpener(opener video.Opener) Option {
	return func(c *Config) {
		c.Opener = opener
	}
}

func WithDownloader(d Downloader) Option {
	return func(c *Config) {
		c.Downloader = d
	}
}

func WithFrameThreshold(threshold float64) Option {
	return func(c *Config) {
		c.FrameThreshold = threshold
	}
}

func WithMinSceneLength(secs float64) Option {
	return func(c *Config) {
		c.MinSceneLengthSecs = secs
	}
}

// defaultConfig returns the envDefault values without consulting the environment.
func defaultConfig() *Config {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("scenescribe: invalid config defaults: %v", err))
	}
	return cfg
}

// LoadConfig reads an optional .env file, then SCENESCRIBE_* variables, then applies opts.
func LoadConfig(opts ...Option) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg, nil
}
