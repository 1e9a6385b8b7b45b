package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Firestore FirestoreConfig
	Store     StoreConfig
	Archive   ArchiveConfig
	S3        S3Config
	Log       LogConfig
	Layout    LayoutConfig
	Parser    ParserConfig
	Pipeline  PipelineConfig
	CORS      CORSConfig
	Upload    UploadConfig
}

// CORSConfig holds CORS settings. A "*" entry allows every origin.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// UploadConfig bounds multipart uploads.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
	MaxFiles      int   `mapstructure:"max_files"`
}

// LayoutConfig selects and configures the document layout analysis service.
type LayoutConfig struct {
	Provider      string        `mapstructure:"provider"`
	Endpoint      string        `mapstructure:"endpoint"`
	APIKey        string        `mapstructure:"api_key"`
	APIVersion    string        `mapstructure:"api_version"`
	ModelID       string        `mapstructure:"model_id"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	TimeoutSecs   int           `mapstructure:"timeout_secs"`
	MaxPages      int           `mapstructure:"max_pages"`
	EnhanceImages bool          `mapstructure:"enhance_images"`
}

// ParserProviderConfig holds settings for a single completion provider.
type ParserProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	BaseURL      string `mapstructure:"base_url"`
	ProjectID    string `mapstructure:"project_id"`
	Region       string `mapstructure:"region"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ParserConfig holds interpretation settings with multi-provider support.
type ParserConfig struct {
	// Legacy flat fields
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	BaseURL      string `mapstructure:"base_url"`
	ProjectID    string `mapstructure:"project_id"`
	Region       string `mapstructure:"region"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`

	Primary   ParserProviderConfig `mapstructure:"primary"`
	Secondary ParserProviderConfig `mapstructure:"secondary"`
	Tertiary  ParserProviderConfig `mapstructure:"tertiary"`

	Temperature    float32       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Attempts       int           `mapstructure:"attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"`
	StrictSchema   bool          `mapstructure:"strict_schema"`
}

// PrimaryConfig returns the primary provider config, falling back to legacy flat fields.
func (p *ParserConfig) PrimaryConfig() *ParserProviderConfig {
	if p.Primary.Provider != "" {
		return &p.Primary
	}
	return &ParserProviderConfig{
		Provider:     p.Provider,
		APIKey:       p.APIKey,
		DefaultModel: p.DefaultModel,
		BaseURL:      p.BaseURL,
		ProjectID:    p.ProjectID,
		Region:       p.Region,
		TimeoutSecs:  p.TimeoutSecs,
	}
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (p *ParserConfig) SecondaryConfig() *ParserProviderConfig {
	if p.Secondary.Provider != "" {
		return &p.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (p *ParserConfig) TertiaryConfig() *ParserProviderConfig {
	if p.Tertiary.Provider != "" {
		return &p.Tertiary
	}
	return nil
}

// Providers returns the configured providers in fallback order.
func (p *ParserConfig) Providers() []*ParserProviderConfig {
	out := []*ParserProviderConfig{p.PrimaryConfig()}
	if s := p.SecondaryConfig(); s != nil {
		out = append(out, s)
	}
	if t := p.TertiaryConfig(); t != nil {
		out = append(out, t)
	}
	return out
}

// PipelineConfig bounds chunk sizes and fan-out.
type PipelineConfig struct {
	ChunkSize       int `mapstructure:"chunk_size"`
	PageConcurrency int `mapstructure:"page_concurrency"`
	MaxInFlight     int `mapstructure:"max_in_flight"`
}

// StoreConfig selects the invoice store backend.
type StoreConfig struct {
	Backend    string        `mapstructure:"backend"`
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
}

// FirestoreConfig holds Firestore settings.
type FirestoreConfig struct {
	ProjectID  string `mapstructure:"project_id"`
	Collection string `mapstructure:"collection"`
}

// ArchiveConfig selects where raw uploads are archived.
type ArchiveConfig struct {
	Backend string `mapstructure:"backend"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	Version      string        `mapstructure:"version"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the INVOICEFLOW_
// prefix. The variable names used by earlier deployments are bound as aliases.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOICEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.version", "1.0.0")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "invoiceflow")
	v.SetDefault("db.password", "invoiceflow_secret")
	v.SetDefault("db.name", "invoiceflow_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Store defaults
	v.SetDefault("store.backend", "postgres")
	v.SetDefault("store.max_retries", 3)
	v.SetDefault("store.base_delay", "1s")
	v.SetDefault("firestore.project_id", "")
	v.SetDefault("firestore.collection", "user_invoices")

	// Archive defaults
	v.SetDefault("archive.backend", "none")
	v.SetDefault("archive.bucket", "invoiceflow-uploads")
	v.SetDefault("archive.prefix", "uploads")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "*")

	v.SetDefault("upload.max_file_size_mb", 50)
	v.SetDefault("upload.max_files", 20)

	// Layout defaults
	v.SetDefault("layout.provider", "document-intelligence")
	v.SetDefault("layout.endpoint", "")
	v.SetDefault("layout.api_key", "")
	v.SetDefault("layout.api_version", "2023-07-31")
	v.SetDefault("layout.model_id", "prebuilt-layout")
	v.SetDefault("layout.poll_interval", "1s")
	v.SetDefault("layout.timeout_secs", 180)
	v.SetDefault("layout.max_pages", 0)
	v.SetDefault("layout.enhance_images", false)

	// Parser defaults (legacy flat)
	v.SetDefault("parser.provider", "openai")
	v.SetDefault("parser.api_key", "")
	v.SetDefault("parser.default_model", "gpt-4o-mini")
	v.SetDefault("parser.base_url", "")
	v.SetDefault("parser.project_id", "")
	v.SetDefault("parser.region", "us-central1")
	v.SetDefault("parser.timeout_secs", 120)
	v.SetDefault("parser.temperature", 0.1)
	v.SetDefault("parser.max_tokens", 16000)
	v.SetDefault("parser.attempts", 3)
	v.SetDefault("parser.retry_base_delay", "1s")
	v.SetDefault("parser.retry_max_delay", "30s")
	v.SetDefault("parser.strict_schema", false)
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		v.SetDefault("parser."+tier+".provider", "")
		v.SetDefault("parser."+tier+".api_key", "")
		v.SetDefault("parser."+tier+".default_model", "")
		v.SetDefault("parser."+tier+".base_url", "")
		v.SetDefault("parser."+tier+".project_id", "")
		v.SetDefault("parser."+tier+".region", "us-central1")
		v.SetDefault("parser."+tier+".timeout_secs", 120)
	}

	// Pipeline defaults
	v.SetDefault("pipeline.chunk_size", 14000)
	v.SetDefault("pipeline.page_concurrency", 4)
	v.SetDefault("pipeline.max_in_flight", 8)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string][]string{
		"server.port":               {"INVOICEFLOW_SERVER_PORT"},
		"server.read_timeout":       {"INVOICEFLOW_SERVER_READ_TIMEOUT"},
		"server.write_timeout":      {"INVOICEFLOW_SERVER_WRITE_TIMEOUT"},
		"server.environment":        {"INVOICEFLOW_SERVER_ENVIRONMENT"},
		"db.host":                   {"INVOICEFLOW_DB_HOST"},
		"db.port":                   {"INVOICEFLOW_DB_PORT"},
		"db.user":                   {"INVOICEFLOW_DB_USER"},
		"db.password":               {"INVOICEFLOW_DB_PASSWORD"},
		"db.name":                   {"INVOICEFLOW_DB_NAME", "COSMOS_DATABASE"},
		"db.sslmode":                {"INVOICEFLOW_DB_SSLMODE"},
		"db.max_open":               {"INVOICEFLOW_DB_MAX_OPEN"},
		"db.max_idle":               {"INVOICEFLOW_DB_MAX_IDLE"},
		"store.backend":             {"INVOICEFLOW_STORE_BACKEND"},
		"store.max_retries":         {"INVOICEFLOW_STORE_MAX_RETRIES"},
		"store.base_delay":          {"INVOICEFLOW_STORE_BASE_DELAY"},
		"firestore.project_id":      {"INVOICEFLOW_FIRESTORE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"},
		"firestore.collection":      {"INVOICEFLOW_FIRESTORE_COLLECTION", "COSMOS_CONTAINER"},
		"archive.backend":           {"INVOICEFLOW_ARCHIVE_BACKEND"},
		"archive.bucket":            {"INVOICEFLOW_ARCHIVE_BUCKET"},
		"archive.prefix":            {"INVOICEFLOW_ARCHIVE_PREFIX"},
		"s3.region":                 {"INVOICEFLOW_S3_REGION"},
		"s3.endpoint":               {"INVOICEFLOW_S3_ENDPOINT"},
		"s3.access_key":             {"INVOICEFLOW_S3_ACCESS_KEY"},
		"s3.secret_key":             {"INVOICEFLOW_S3_SECRET_KEY"},
		"log.level":                 {"INVOICEFLOW_LOG_LEVEL"},
		"log.format":                {"INVOICEFLOW_LOG_FORMAT"},
		"cors.allowed_origins":      {"INVOICEFLOW_CORS_ALLOWED_ORIGINS"},
		"upload.max_file_size_mb":   {"INVOICEFLOW_UPLOAD_MAX_FILE_SIZE_MB"},
		"upload.max_files":          {"INVOICEFLOW_UPLOAD_MAX_FILES"},
		"layout.provider":           {"INVOICEFLOW_LAYOUT_PROVIDER"},
		"layout.endpoint":           {"INVOICEFLOW_LAYOUT_ENDPOINT", "AZURE_FORM_RECOGNIZER_ENDPOINT"},
		"layout.api_key":            {"INVOICEFLOW_LAYOUT_API_KEY", "AZURE_FORM_RECOGNIZER_KEY"},
		"layout.api_version":        {"INVOICEFLOW_LAYOUT_API_VERSION"},
		"layout.model_id":           {"INVOICEFLOW_LAYOUT_MODEL_ID"},
		"layout.poll_interval":      {"INVOICEFLOW_LAYOUT_POLL_INTERVAL"},
		"layout.timeout_secs":       {"INVOICEFLOW_LAYOUT_TIMEOUT_SECS"},
		"layout.max_pages":          {"INVOICEFLOW_LAYOUT_MAX_PAGES"},
		"layout.enhance_images":     {"INVOICEFLOW_LAYOUT_ENHANCE_IMAGES"},
		"parser.provider":           {"INVOICEFLOW_PARSER_PROVIDER"},
		"parser.api_key":            {"INVOICEFLOW_PARSER_API_KEY", "OPENAI_API_KEY"},
		"parser.default_model":      {"INVOICEFLOW_PARSER_DEFAULT_MODEL"},
		"parser.base_url":           {"INVOICEFLOW_PARSER_BASE_URL"},
		"parser.project_id":         {"INVOICEFLOW_PARSER_PROJECT_ID"},
		"parser.region":             {"INVOICEFLOW_PARSER_REGION"},
		"parser.timeout_secs":       {"INVOICEFLOW_PARSER_TIMEOUT_SECS"},
		"parser.temperature":        {"INVOICEFLOW_PARSER_TEMPERATURE"},
		"parser.max_tokens":         {"INVOICEFLOW_PARSER_MAX_TOKENS"},
		"parser.attempts":           {"INVOICEFLOW_PARSER_ATTEMPTS"},
		"parser.retry_base_delay":   {"INVOICEFLOW_PARSER_RETRY_BASE_DELAY"},
		"parser.retry_max_delay":    {"INVOICEFLOW_PARSER_RETRY_MAX_DELAY"},
		"parser.strict_schema":      {"INVOICEFLOW_PARSER_STRICT_SCHEMA"},
		"pipeline.chunk_size":       {"INVOICEFLOW_PIPELINE_CHUNK_SIZE"},
		"pipeline.page_concurrency": {"INVOICEFLOW_PIPELINE_PAGE_CONCURRENCY"},
		"pipeline.max_in_flight":    {"INVOICEFLOW_PIPELINE_MAX_IN_FLIGHT"},
	}
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		prefix := "INVOICEFLOW_PARSER_" + strings.ToUpper(tier) + "_"
		for _, field := range []string{"provider", "api_key", "default_model", "base_url", "project_id", "region", "timeout_secs"} {
			envBindings["parser."+tier+"."+field] = []string{prefix + strings.ToUpper(field)}
		}
	}
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		_ = v.BindEnv(args...)
	}

	cfg := &Config{}

	// Hosting platforms set PORT. Use it if INVOICEFLOW_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOICEFLOW_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		Version:      v.GetString("server.version"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Store = StoreConfig{
		Backend:    v.GetString("store.backend"),
		MaxRetries: v.GetInt("store.max_retries"),
		BaseDelay:  v.GetDuration("store.base_delay"),
	}
	cfg.Firestore = FirestoreConfig{
		ProjectID:  v.GetString("firestore.project_id"),
		Collection: v.GetString("firestore.collection"),
	}
	cfg.Archive = ArchiveConfig{
		Backend: v.GetString("archive.backend"),
		Bucket:  v.GetString("archive.bucket"),
		Prefix:  v.GetString("archive.prefix"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
		MaxFiles:      v.GetInt("upload.max_files"),
	}
	cfg.Layout = LayoutConfig{
		Provider:      v.GetString("layout.provider"),
		Endpoint:      v.GetString("layout.endpoint"),
		APIKey:        v.GetString("layout.api_key"),
		APIVersion:    v.GetString("layout.api_version"),
		ModelID:       v.GetString("layout.model_id"),
		PollInterval:  v.GetDuration("layout.poll_interval"),
		TimeoutSecs:   v.GetInt("layout.timeout_secs"),
		MaxPages:      v.GetInt("layout.max_pages"),
		EnhanceImages: v.GetBool("layout.enhance_images"),
	}

	cfg.Parser = ParserConfig{
		Provider:       v.GetString("parser.provider"),
		APIKey:         v.GetString("parser.api_key"),
		DefaultModel:   v.GetString("parser.default_model"),
		BaseURL:        v.GetString("parser.base_url"),
		ProjectID:      v.GetString("parser.project_id"),
		Region:         v.GetString("parser.region"),
		TimeoutSecs:    v.GetInt("parser.timeout_secs"),
		Primary:        providerConfig(v, "primary"),
		Secondary:      providerConfig(v, "secondary"),
		Tertiary:       providerConfig(v, "tertiary"),
		Temperature:    float32(v.GetFloat64("parser.temperature")),
		MaxTokens:      v.GetInt("parser.max_tokens"),
		Attempts:       v.GetInt("parser.attempts"),
		RetryBaseDelay: v.GetDuration("parser.retry_base_delay"),
		RetryMaxDelay:  v.GetDuration("parser.retry_max_delay"),
		StrictSchema:   v.GetBool("parser.strict_schema"),
	}

	cfg.Pipeline = PipelineConfig{
		ChunkSize:       v.GetInt("pipeline.chunk_size"),
		PageConcurrency: v.GetInt("pipeline.page_concurrency"),
		MaxInFlight:     v.GetInt("pipeline.max_in_flight"),
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, tier string) ParserProviderConfig {
	prefix := "parser." + tier + "."
	return ParserProviderConfig{
		Provider:     v.GetString(prefix + "provider"),
		APIKey:       v.GetString(prefix + "api_key"),
		DefaultModel: v.GetString(prefix + "default_model"),
		BaseURL:      v.GetString(prefix + "base_url"),
		ProjectID:    v.GetString(prefix + "project_id"),
		Region:       v.GetString(prefix + "region"),
		TimeoutSecs:  v.GetInt(prefix + "timeout_secs"),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// MissingSettings lists required settings that are empty. Callers log them
// as warnings; a missing setting does not prevent startup.
func (c *Config) MissingSettings() []string {
	var missing []string
	if c.Layout.Endpoint == "" {
		missing = append(missing, "layout.endpoint (AZURE_FORM_RECOGNIZER_ENDPOINT)")
	}
	if c.Layout.APIKey == "" {
		missing = append(missing, "layout.api_key (AZURE_FORM_RECOGNIZER_KEY)")
	}
	for i, p := range c.Parser.Providers() {
		if p.Provider == "vertex" {
			if p.ProjectID == "" {
				missing = append(missing, fmt.Sprintf("parser provider %d (%s) project_id", i+1, p.Provider))
			}
			continue
		}
		if p.APIKey == "" {
			missing = append(missing, fmt.Sprintf("parser provider %d (%s) api_key", i+1, p.Provider))
		}
	}
	switch c.Store.Backend {
	case "firestore":
		if c.Firestore.ProjectID == "" {
			missing = append(missing, "firestore.project_id")
		}
		if c.Firestore.Collection == "" {
			missing = append(missing, "firestore.collection")
		}
	case "postgres":
		if c.DB.Host == "" {
			missing = append(missing, "db.host")
		}
	}
	if c.Archive.Backend != "none" && c.Archive.Bucket == "" {
		missing = append(missing, "archive.bucket")
	}
	return missing
}
