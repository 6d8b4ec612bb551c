package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config represents the application configuration structure.
// It is read from a YAML file, then overridden by environment variables.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel is the minimum zap level to log (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" env-default:"" yaml:"logLevel"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"10s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// AllowedOrigins lists browser origins allowed by CORS, empty allows any
		AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" env-separator:"," yaml:"allowedOrigins"`
		// Pprof exposes runtime profiles under /debug/pprof/
		Pprof bool `env:"HTTP_PPROF" env-default:"false" yaml:"pprof"`
	} `yaml:"http"`

	// Database contains all database connection related configurations
	Database struct {
		Username           string        `env:"DATABASE_USERNAME"                 env-default:"myuser"     yaml:"username"`
		Password           string        `env:"DATABASE_PASSWORD"                 env-default:"mypassword" yaml:"password"`
		Host               string        `env:"DATABASE_HOST"                     env-default:"localhost"  yaml:"host"`
		Port               int           `env:"DATABASE_PORT"                     env-default:"5432"       yaml:"port"`
		SslMode            string        `env:"DATABASE_SSL_MODE"                 env-default:"disable"    yaml:"sslMode"`
		DatabaseName       string        `env:"DATABASE_NAME"                     env-default:"scanorch"   yaml:"name"`
		MaxOpenConnections int           `env:"DATABASE_MAX_OPEN_CONNECTIONS"     env-default:"10"         yaml:"maxOpenConnections"`
		MaxIdleConnections int           `env:"DATABASE_MAX_IDLE_CONNECTIONS"     env-default:"8"          yaml:"maxIdleConnections"`
		ConnMaxLifetime    time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME"  env-default:"3m"         yaml:"connMaxLifetime"`
		ConnMaxIdleTime    time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m"         yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	// Orchestrator configures the scan dispatcher.
	Orchestrator struct {
		// PoolSize is the number of scan units that may run at once across the process
		PoolSize int `env:"ORCHESTRATOR_POOL_SIZE" env-default:"3" yaml:"poolSize"`
		// Deadline bounds a whole dispatch of one task
		Deadline time.Duration `env:"ORCHESTRATOR_DEADLINE" env-default:"30m" yaml:"deadline"`
		// StartTimeTolerance is how far a requested start time may lag behind task creation
		StartTimeTolerance time.Duration `env:"ORCHESTRATOR_START_TIME_TOLERANCE" env-default:"5s" yaml:"startTimeTolerance"`
	} `yaml:"orchestrator"`

	// Worker configures the background job runner.
	Worker struct {
		// MaxWorkers is the number of tasks River executes concurrently
		MaxWorkers int `env:"WORKER_MAX_WORKERS" env-default:"10" yaml:"maxWorkers"`
		// MaxAttempts is the number of River attempts per task job
		MaxAttempts int `env:"WORKER_MAX_ATTEMPTS" env-default:"1" yaml:"maxAttempts"`
		// JobTimeout must be larger than Orchestrator.Deadline
		JobTimeout time.Duration `env:"WORKER_JOB_TIMEOUT" env-default:"35m" yaml:"jobTimeout"`
	} `yaml:"worker"`

	// Auth configures how task credentials are authorized.
	Auth struct {
		// Mode is either "local" or "remote"
		Mode string `env:"AUTH_MODE" env-default:"local" yaml:"mode"`
		JWT  struct {
			// PublicKey verifies JWT credentials (PEM)
			PublicKey string `env:"AUTH_JWT_PUBLIC_KEY" yaml:"publicKey"`
			// PrivateKey signs tokens in the jwt command (PEM)
			PrivateKey string `env:"AUTH_JWT_PRIVATE_KEY" yaml:"privateKey"`
			Issuer     string `env:"AUTH_JWT_ISSUER"      env-default:"scanorch" yaml:"issuer"`
		} `yaml:"jwt"`
		// BasicUsers maps usernames to bcrypt hashes
		BasicUsers map[string]string `env:"AUTH_BASIC_USERS" yaml:"basicUsers"`
		Remote     struct {
			URL     string        `env:"AUTH_REMOTE_URL"     yaml:"url"`
			Timeout time.Duration `env:"AUTH_REMOTE_TIMEOUT" env-default:"5s" yaml:"timeout"`
		} `yaml:"remote"`
	} `yaml:"auth"`

	// Scanners configures the external scanning tools.
	Scanners struct {
		ZAP struct {
			Enabled      bool          `env:"SCANNERS_ZAP_ENABLED"       env-default:"true"                  yaml:"enabled"`
			BaseURL      string        `env:"SCANNERS_ZAP_BASE_URL"      env-default:"http://localhost:8090" yaml:"baseURL"`
			APIKey       string        `env:"SCANNERS_ZAP_API_KEY"       yaml:"apiKey"`
			PollInterval time.Duration `env:"SCANNERS_ZAP_POLL_INTERVAL" env-default:"1s"                    yaml:"pollInterval"`
			RPS          float64       `env:"SCANNERS_ZAP_RPS"           env-default:"10"                    yaml:"rps"`
		} `yaml:"zap"`
		Burp struct {
			Enabled      bool          `env:"SCANNERS_BURP_ENABLED"       env-default:"true"                     yaml:"enabled"`
			BaseURL      string        `env:"SCANNERS_BURP_BASE_URL"      env-default:"http://localhost:1337/v1" yaml:"baseURL"`
			APIKey       string        `env:"SCANNERS_BURP_API_KEY"       yaml:"apiKey"`
			PollInterval time.Duration `env:"SCANNERS_BURP_POLL_INTERVAL" env-default:"5s"                       yaml:"pollInterval"`
			RPS          float64       `env:"SCANNERS_BURP_RPS"           env-default:"5"                        yaml:"rps"`
		} `yaml:"burp"`
		FTP struct {
			Enabled     bool          `env:"SCANNERS_FTP_ENABLED"      env-default:"true" yaml:"enabled"`
			DialTimeout time.Duration `env:"SCANNERS_FTP_DIAL_TIMEOUT" env-default:"5s"   yaml:"dialTimeout"`
		} `yaml:"ftp"`
		// HTTPTimeout bounds each request to a scanning tool API
		HTTPTimeout time.Duration `env:"SCANNERS_HTTP_TIMEOUT" env-default:"30s" yaml:"httpTimeout"`
	} `yaml:"scanners"`

	// Archive configures uploading result reports to S3 compatible storage.
	Archive struct {
		Endpoint  string `env:"ARCHIVE_ENDPOINT"   yaml:"endpoint"`
		AccessKey string `env:"ARCHIVE_ACCESS_KEY" yaml:"accessKey"`
		SecretKey string `env:"ARCHIVE_SECRET_KEY" yaml:"secretKey"`
		Bucket    string `env:"ARCHIVE_BUCKET"     env-default:"scan-results" yaml:"bucket"`
		UseSSL    bool   `env:"ARCHIVE_USE_SSL"    env-default:"false"        yaml:"useSSL"`
	} `yaml:"archive"`

	// Tracing configures OTLP trace export. Tracing is disabled when Endpoint is empty.
	Tracing struct {
		Endpoint    string  `env:"TRACING_ENDPOINT"     yaml:"endpoint"`
		ServiceName string  `env:"TRACING_SERVICE_NAME" env-default:"scanorch" yaml:"serviceName"`
		Probability float64 `env:"TRACING_PROBABILITY"  env-default:"1"        yaml:"probability"`
	} `yaml:"tracing"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load reads an optional .env file, then the yaml config file at configPath,
// and returns a filled Config struct. Environment variables take precedence.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env file: %w", err)
	}

	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	if cfg.Worker.JobTimeout <= cfg.Orchestrator.Deadline {
		return nil, fmt.Errorf("worker job timeout (%s) must exceed orchestrator deadline (%s)",
			cfg.Worker.JobTimeout, cfg.Orchestrator.Deadline)
	}

	return &cfg, nil
}
