package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	Loader   LoaderConfig
	Billing  BillingConfig
	Extract  ExtractConfig
	Archive  ArchiveConfig
	HTTP     HTTPConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// LoaderConfig holds staging loader configuration
type LoaderConfig struct {
	BatchSize int // rows read from the extract source per round trip
	MaxErrors int // row errors retained per load result before truncation
}

// BillingConfig holds billing engine configuration
type BillingConfig struct {
	CheckpointSize int // subscribers committed per checkpoint in a monthly run
}

// ExtractConfig holds extract source configuration
type ExtractConfig struct {
	Dir            string // directory the extract files are dropped in
	NamingTemplate string // file name template, {entity} and {date} placeholders
}

// ArchiveConfig holds archiver configuration
type ArchiveConfig struct {
	Backend   string // s3 or local
	Dir       string // local archive directory (local backend)
	Endpoint  string // S3-compatible endpoint (s3 backend)
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with TELCO_ prefix (e.g., TELCO_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("TELCO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Loader: LoaderConfig{
			BatchSize: v.GetInt("loader.batch_size"),
			MaxErrors: v.GetInt("loader.max_errors"),
		},
		Billing: BillingConfig{
			CheckpointSize: v.GetInt("billing.checkpoint_size"),
		},
		Extract: ExtractConfig{
			Dir:            v.GetString("extract.dir"),
			NamingTemplate: v.GetString("extract.naming_template"),
		},
		Archive: ArchiveConfig{
			Backend:   v.GetString("archive.backend"),
			Dir:       v.GetString("archive.dir"),
			Endpoint:  v.GetString("archive.endpoint"),
			Region:    v.GetString("archive.region"),
			Bucket:    v.GetString("archive.bucket"),
			AccessKey: v.GetString("archive.access_key"),
			SecretKey: v.GetString("archive.secret_key"),
			UseSSL:    v.GetBool("archive.use_ssl"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "telcobill"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "telcobill"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Loader.BatchSize == 0 {
		cfg.Loader.BatchSize = 10000
	}
	if cfg.Loader.MaxErrors == 0 {
		cfg.Loader.MaxErrors = 100
	}
	if cfg.Billing.CheckpointSize == 0 {
		cfg.Billing.CheckpointSize = 100
	}
	if cfg.Extract.Dir == "" {
		cfg.Extract.Dir = "extracts"
	}
	if cfg.Extract.NamingTemplate == "" {
		cfg.Extract.NamingTemplate = "{entity}_{date}.csv"
	}
	if cfg.Archive.Backend == "" {
		cfg.Archive.Backend = "local"
	}
	if cfg.Archive.Dir == "" {
		cfg.Archive.Dir = "archive"
	}
	if cfg.Archive.Region == "" {
		cfg.Archive.Region = "af-south-1"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// Batch loads and billing runs are synchronous; give them room
		cfg.HTTP.WriteTimeout = 10 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Loader.BatchSize <= 0 {
		return fmt.Errorf("loader.batch_size must be positive")
	}
	if c.Billing.CheckpointSize <= 0 {
		return fmt.Errorf("billing.checkpoint_size must be positive")
	}
	if c.Archive.Backend != "local" && c.Archive.Backend != "s3" {
		return fmt.Errorf("archive.backend must be 'local' or 's3', got %q", c.Archive.Backend)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Archive.Backend == "s3" && (c.Archive.Bucket == "" || c.Archive.AccessKey == "" || c.Archive.SecretKey == "") {
			return fmt.Errorf("archive bucket and credentials are required for the s3 backend in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// SourceName resolves the naming template for an entity on a given date,
// e.g. subscribers_20250131.csv. The extract collaborator drops files under
// this deterministic name; the loader only needs to compute it.
func (e *ExtractConfig) SourceName(entity string, date time.Time) string {
	name := strings.ReplaceAll(e.NamingTemplate, "{entity}", entity)
	return strings.ReplaceAll(name, "{date}", date.Format("20060102"))
}
