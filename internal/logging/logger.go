package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const defaultHistorySize = 500

// Logger is satisfied by *slog.Logger. Packages that only log take this
// instead of the concrete type.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mutex           sync.RWMutex
	globalConfig    Config
	isInitialized   bool
	globalLevelVar  = &slog.LevelVar{}
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	history         = NewHistory(defaultHistorySize)
)

// Initialize sets up the logging system. Loggers handed out earlier keep
// their outputs but pick up the new levels.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = config
	isInitialized = true
	globalLevelVar.Set(levelOrDefault(config.Level, slog.LevelInfo))

	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(module))
		moduleLoggers[module] = slog.New(createHandler(config.Format, module, levelVar))
	}

	slog.SetDefault(slog.New(createHandler(config.Format, "", globalLevelVar)))
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	logger, exists := moduleLoggers[module]
	mutex.RUnlock()
	if exists {
		return logger
	}

	mutex.Lock()
	defer mutex.Unlock()
	if logger, exists := moduleLoggers[module]; exists {
		return logger
	}

	levelVar := &slog.LevelVar{}
	format := "text"
	if isInitialized {
		levelVar.Set(moduleLevel(module))
		format = globalConfig.Format
	}

	logger = slog.New(createHandler(format, module, levelVar))
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	return logger
}

// SetModuleLevel changes a module's level at runtime. An empty module
// name changes the global level and every module without an override.
func SetModuleLevel(module, level string) bool {
	parsed := parseLevel(level)
	if parsed == nil {
		return false
	}

	mutex.Lock()
	defer mutex.Unlock()

	if module == "" {
		globalConfig.Level = level
		globalLevelVar.Set(*parsed)
		for name, levelVar := range moduleLevelVars {
			if _, override := globalConfig.Modules[name]; !override {
				levelVar.Set(*parsed)
			}
		}
		return true
	}

	if globalConfig.Modules == nil {
		globalConfig.Modules = make(map[string]string)
	}
	globalConfig.Modules[module] = level
	if levelVar, ok := moduleLevelVars[module]; ok {
		levelVar.Set(*parsed)
	}
	return true
}

// GetHistory returns the shared recent-entries history.
func GetHistory() *History {
	return history
}

// moduleLevel resolves the level for module from globalConfig (must hold lock).
func moduleLevel(module string) slog.Level {
	level := levelOrDefault(globalConfig.Level, slog.LevelInfo)
	if override, ok := globalConfig.Modules[module]; ok {
		level = levelOrDefault(override, level)
	}
	return level
}

// createHandler builds the history, stdout and journal sinks for module.
// The sinks share level with the module handler so a runtime level change
// reaches all of them.
func createHandler(format, module string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	sinks := []slog.Handler{NewHistoryHandler(history, level)}
	if isStdoutAvailable() {
		if format == "json" {
			sinks = append(sinks, slog.NewJSONHandler(os.Stdout, opts))
		} else {
			sinks = append(sinks, slog.NewTextHandler(os.Stdout, opts))
		}
	}
	if IsJournalAvailable() {
		sinks = append(sinks, NewJournalHandler(level))
	}
	return newModuleHandler(module, level, sinks...)
}

// isStdoutAvailable reports whether stdout goes somewhere other than /dev/null.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return (mode&os.ModeCharDevice) != 0 || (mode&os.ModeNamedPipe) != 0 || (mode&os.ModeSocket) != 0 || mode.IsRegular()
}

func levelOrDefault(level string, fallback slog.Level) slog.Level {
	if parsed := parseLevel(level); parsed != nil {
		return *parsed
	}
	return fallback
}

// parseLevel converts a level name to slog.Level, nil when unknown.
func parseLevel(level string) *slog.Level {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil
	}
	return &l
}
