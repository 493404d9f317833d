package common

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/ducminhle1904/crypto-grid-sim/internal/errors"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/config"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Logger prints human oriented progress for CLI applications. Structured
// logs go through internal/logger instead.
type Logger struct {
	Level      LogLevel
	ShowEmojis bool
	SilentMode bool
	Out        io.Writer
}

// NewLogger creates a new logger with default settings
func NewLogger() *Logger {
	return &Logger{
		Level:      LogLevelInfo,
		ShowEmojis: true,
		Out:        os.Stdout,
	}
}

// SetSilentMode enables or disables silent mode
func (l *Logger) SetSilentMode(silent bool) {
	l.SilentMode = silent
}

func (l *Logger) printf(format string, args ...interface{}) {
	out := l.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, format, args...)
}

func (l *Logger) mark(emoji, plain string) string {
	if l.ShowEmojis {
		return emoji
	}
	return plain
}

// Header prints a formatted header
func (l *Logger) Header(title string) {
	if l.SilentMode {
		return
	}
	l.printf("\n%s %s\n", l.mark("🎯", "***"), strings.ToUpper(title))
	l.printf("%s\n", strings.Repeat("=", len(title)+5))
}

// Section prints a formatted section header
func (l *Logger) Section(title string) {
	if l.SilentMode {
		return
	}
	l.printf("\n%s %s\n", l.mark("📋", "---"), title)
	l.printf("%s\n", strings.Repeat("-", len(title)+5))
}

// Info prints an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.SilentMode || l.Level < LogLevelInfo {
		return
	}
	l.printf("%s  %s\n", l.mark("ℹ️", "[INFO]"), fmt.Sprintf(format, args...))
}

// Error prints an error message, even in silent mode
func (l *Logger) Error(format string, args ...interface{}) {
	l.printf("%s %s\n", l.mark("❌", "[ERROR]"), fmt.Sprintf(format, args...))
}

// Success prints a success message
func (l *Logger) Success(format string, args ...interface{}) {
	if l.SilentMode {
		return
	}
	l.printf("%s %s\n", l.mark("✅", "[SUCCESS]"), fmt.Sprintf(format, args...))
}

// Warn prints a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.Level < LogLevelWarn {
		return
	}
	l.printf("%s  %s\n", l.mark("⚠️", "[WARN]"), fmt.Sprintf(format, args...))
}

// Debug prints a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.Level < LogLevelDebug {
		return
	}
	l.printf("%s %s\n", l.mark("🔍", "[DEBUG]"), fmt.Sprintf(format, args...))
}

// Progress prints a progress message
func (l *Logger) Progress(format string, args ...interface{}) {
	if l.SilentMode {
		return
	}
	l.printf("%s %s\n", l.mark("🔄", "[PROGRESS]"), fmt.Sprintf(format, args...))
}

// EnvLoader provides environment loading utilities
type EnvLoader struct {
	logger *Logger
}

// NewEnvLoader creates a new environment loader
func NewEnvLoader(logger *Logger) *EnvLoader {
	return &EnvLoader{logger: logger}
}

// LoadEnvFile loads environment variables from a file. A missing file is
// not an error; variables already set in the process win.
func (e *EnvLoader) LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		e.logger.Debug("Environment file %s not found, using system environment", path)
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		e.logger.Warn("Could not load environment file %s: %v", path, err)
		return err
	}

	e.logger.Debug("Environment loaded from %s", path)
	return nil
}

// GetEnvWithDefault gets an environment variable with a default value
func (e *EnvLoader) GetEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable, falling back on parse errors
func (e *EnvLoader) GetEnvInt(key string, defaultValue int) int {
	raw := e.GetEnvWithDefault(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.logger.Warn("Ignoring %s=%q: not an integer", key, raw)
		return defaultValue
	}
	return n
}

// GetEnvBool gets a boolean environment variable, falling back on parse errors
func (e *EnvLoader) GetEnvBool(key string, defaultValue bool) bool {
	raw := e.GetEnvWithDefault(key, "")
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		e.logger.Warn("Ignoring %s=%q: not a boolean", key, raw)
		return defaultValue
	}
	return b
}

// ValidateRequiredEnvVars validates that all required environment variables are set
func (e *EnvLoader) ValidateRequiredEnvVars(keys []string) error {
	missing := []string{}

	for _, key := range keys {
		if e.GetEnvWithDefault(key, "") == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return apperrors.NewConfigurationError("env", "validate",
			"missing required environment variables: "+strings.Join(missing, ", "))
	}

	return nil
}

// Connections reads the external endpoints of the data stack:
// REDIS_URL, DATABASE_URL, BYBIT_TESTNET, BYBIT_API_KEY and BYBIT_API_SECRET
func (e *EnvLoader) Connections() config.Connections {
	return config.Connections{
		RedisURL:       e.GetEnvWithDefault("REDIS_URL", ""),
		DatabaseURL:    e.GetEnvWithDefault("DATABASE_URL", ""),
		BybitTestnet:   e.GetEnvBool("BYBIT_TESTNET", false),
		BybitAPIKey:    e.GetEnvWithDefault("BYBIT_API_KEY", ""),
		BybitAPISecret: e.GetEnvWithDefault("BYBIT_API_SECRET", ""),
	}
}

// ApplyDataEnv fills data settings left unset by files and flags from
// DATA_SOURCE, DATA_ROOT, DATA_INTERVAL and PRICE_CACHE
func (e *EnvLoader) ApplyDataEnv(d *config.DataConfig) {
	if d.Source == "" {
		d.Source = e.GetEnvWithDefault("DATA_SOURCE", "")
	}
	if d.Root == "" {
		d.Root = e.GetEnvWithDefault("DATA_ROOT", "")
	}
	if d.Interval == "" {
		d.Interval = e.GetEnvWithDefault("DATA_INTERVAL", "")
	}
	if d.Cache == "" {
		d.Cache = e.GetEnvWithDefault("PRICE_CACHE", "")
	}
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// Global instances for convenience
var (
	DefaultLogger    = NewLogger()
	DefaultEnvLoader = NewEnvLoader(DefaultLogger)
)

// Convenience functions using global instances
func Header(title string)                         { DefaultLogger.Header(title) }
func Section(title string)                        { DefaultLogger.Section(title) }
func Info(format string, args ...interface{})     { DefaultLogger.Info(format, args...) }
func Error(format string, args ...interface{})    { DefaultLogger.Error(format, args...) }
func Success(format string, args ...interface{})  { DefaultLogger.Success(format, args...) }
func Warn(format string, args ...interface{})     { DefaultLogger.Warn(format, args...) }
func Debug(format string, args ...interface{})    { DefaultLogger.Debug(format, args...) }
func Progress(format string, args ...interface{}) { DefaultLogger.Progress(format, args...) }

func LoadEnvFile(path string) error            { return DefaultEnvLoader.LoadEnvFile(path) }
func GetEnvWithDefault(key, def string) string { return DefaultEnvLoader.GetEnvWithDefault(key, def) }
func GetEnvInt(key string, def int) int        { return DefaultEnvLoader.GetEnvInt(key, def) }
func GetEnvBool(key string, def bool) bool     { return DefaultEnvLoader.GetEnvBool(key, def) }
