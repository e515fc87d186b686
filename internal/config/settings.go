package config

import (
	"fmt"
	"maps"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/llm-pipeline/internal/common"
	"github.com/Veraticus/llm-pipeline/internal/llm"
)

// EnvPrefix is prepended to every configuration key read from the
// environment, e.g. LLMPIPE_PIPELINE_PROMPT_FILE.
const EnvPrefix = "LLMPIPE"

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// envAliases binds keys to the short environment names used in existing
// deployments. The prefixed name always wins.
var envAliases = map[string][]string{
	"database.user":              {"PG_USER"},
	"database.password":          {"PG_PASSWORD"},
	"database.name":              {"PG_DB"},
	"database.host":              {"PG_HOST"},
	"database.port":              {"PG_PORT"},
	"llm.folder_id":              {"YANDEX_FOLDER_ID"},
	"pipeline.batch_commit_size": {"PIPELINE_BATCH_COMMIT_SIZE"},
	"pipeline.max_retries":       {"PIPELINE_MAX_RETRIES"},
	"pipeline.log_file":          {"PIPELINE_LOG_FILE"},
}

// providerKeyEnv names the vendor environment variable holding an API key.
var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"yandex":    "YANDEX_API_KEY",
}

// DatabaseSettings locates the database holding the records.
type DatabaseSettings struct {
	Driver   string
	DSN      string
	User     string
	Password string
	Name     string
	Host     string
	// Path is the SQLite database file.
	Path string
	Port int
}

// LLMSettings configures the provider.
type LLMSettings struct {
	Provider    string
	Model       string
	APIKey      string
	FolderID    string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	RateLimit   int
	Timeout     time.Duration
}

// PipelineSettings configures a run.
type PipelineSettings struct {
	PromptFile              string
	SQLValidationPromptFile string
	LogFile                 string
	BatchCommitSize         int
	MaxRetries              int
	ValidateSQL             bool
	StrictValidation        bool
}

// SourceSettings describes the rows to read.
type SourceSettings struct {
	Query        string
	PrimaryKey   string
	ContentField string
}

// SinkSettings describes the write statement.
type SinkSettings struct {
	Query string
}

// LoggingSettings configures slog.
type LoggingSettings struct {
	Level  string
	Format string
}

// Settings is the full configuration of the tool.
type Settings struct {
	Database DatabaseSettings
	LLM      LLMSettings
	Pipeline PipelineSettings
	Source   SourceSettings
	Sink     SinkSettings
	Logging  LoggingSettings
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", llm.DefaultTemperature)
	v.SetDefault("llm.max_tokens", llm.DefaultMaxTokens)
	v.SetDefault("llm.timeout", llm.DefaultTimeout)
	v.SetDefault("pipeline.validate_sql", true)
	v.SetDefault("pipeline.batch_commit_size", 10)
	v.SetDefault("pipeline.max_retries", 3)
	v.SetDefault("pipeline.log_file", "pipeline.log")
	v.SetDefault("source.primary_key", "id")
	v.SetDefault("source.content_field", "content")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		names := append([]string{envName(key)}, aliases...)
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads Settings from v. Call SetDefaults first.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Database: DatabaseSettings{
			Driver:   strings.ToLower(v.GetString("database.driver")),
			DSN:      v.GetString("database.dsn"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			Name:     v.GetString("database.name"),
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			Path:     ExpandPath(v.GetString("database.path")),
		},
		LLM: LLMSettings{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			FolderID:    v.GetString("llm.folder_id"),
			BaseURL:     v.GetString("llm.base_url"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			Timeout:     v.GetDuration("llm.timeout"),
		},
		Pipeline: PipelineSettings{
			PromptFile:              ExpandPath(v.GetString("pipeline.prompt_file")),
			SQLValidationPromptFile: ExpandPath(v.GetString("pipeline.sql_validation_prompt_file")),
			LogFile:                 ExpandPath(v.GetString("pipeline.log_file")),
			BatchCommitSize:         v.GetInt("pipeline.batch_commit_size"),
			MaxRetries:              v.GetInt("pipeline.max_retries"),
			ValidateSQL:             v.GetBool("pipeline.validate_sql"),
			StrictValidation:        v.GetBool("pipeline.strict_validation"),
		},
		Source: SourceSettings{
			Query:        v.GetString("source.query"),
			PrimaryKey:   v.GetString("source.primary_key"),
			ContentField: v.GetString("source.content_field"),
		},
		Sink: SinkSettings{
			Query: v.GetString("sink.query"),
		},
		Logging: LoggingSettings{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	// Fall back to the vendor's own variable.
	if s.LLM.APIKey == "" {
		if name, ok := providerKeyEnv[s.LLM.Provider]; ok {
			s.LLM.APIKey = os.Getenv(name)
		}
	}

	return s, nil
}

// Validate reports configuration that would stop a run before it starts.
func (s *Settings) Validate() error {
	if err := s.ValidateDatabase(); err != nil {
		return err
	}

	if strings.TrimSpace(s.Source.Query) == "" {
		return fmt.Errorf("%w: source.query", common.ErrMissingConfig)
	}
	if strings.TrimSpace(s.Sink.Query) == "" {
		return fmt.Errorf("%w: sink.query", common.ErrMissingConfig)
	}
	if s.Pipeline.PromptFile == "" {
		return fmt.Errorf("%w: pipeline.prompt_file", common.ErrMissingConfig)
	}
	if s.Pipeline.BatchCommitSize < 1 {
		return fmt.Errorf("%w: pipeline.batch_commit_size must be at least 1", common.ErrInvalidConfig)
	}
	if s.Pipeline.MaxRetries < 1 {
		return fmt.Errorf("%w: pipeline.max_retries must be at least 1", common.ErrInvalidConfig)
	}
	if _, ok := providerKeyEnv[s.LLM.Provider]; !ok {
		return fmt.Errorf("%w: unknown LLM provider %q", common.ErrInvalidConfig, s.LLM.Provider)
	}

	return nil
}

// ValidateDatabase checks only the database settings.
func (s *Settings) ValidateDatabase() error {
	switch s.Database.Driver {
	case DriverPostgres:
		if s.Database.DSN == "" && s.Database.Name == "" {
			return fmt.Errorf("%w: database.dsn or database.name", common.ErrMissingConfig)
		}
	case DriverSQLite:
		if s.Database.Path == "" {
			return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", common.ErrInvalidConfig, s.Database.Driver)
	}
	return nil
}

// PostgresDSN returns database.dsn, or a URL assembled from the individual
// connection settings.
func (s *Settings) PostgresDSN() string {
	if s.Database.DSN != "" {
		return s.Database.DSN
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(s.Database.Host, strconv.Itoa(s.Database.Port)),
		Path:   "/" + s.Database.Name,
	}
	switch {
	case s.Database.User != "" && s.Database.Password != "":
		u.User = url.UserPassword(s.Database.User, s.Database.Password)
	case s.Database.User != "":
		u.User = url.User(s.Database.User)
	}
	return u.String()
}

// ResolveAPIKey fills LLM.APIKey from lookup when configuration and the
// environment did not provide one.
func (s *Settings) ResolveAPIKey(lookup func(provider string) (string, error)) error {
	if s.LLM.APIKey != "" {
		return nil
	}

	if lookup != nil {
		key, err := lookup(s.LLM.Provider)
		if err == nil && key != "" {
			s.LLM.APIKey = key
			return nil
		}
	}

	name := providerKeyEnv[s.LLM.Provider]
	return fmt.Errorf("%w: API key for %s (set %s or run 'llmpipe auth set %s')",
		common.ErrMissingConfig, s.LLM.Provider, name, s.LLM.Provider)
}

// Providers returns the supported provider names in order.
func Providers() []string {
	return slices.Sorted(maps.Keys(providerKeyEnv))
}
