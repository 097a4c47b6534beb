package utils

import (
	"log"
	"strings"

	"gymbook/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Global logger instance
var Logger *zap.Logger

// logLevel is shared by every logger built here so it can be changed at runtime.
var logLevel = zap.NewAtomicLevel()

// InitializeLogger sets up the logging configuration
func InitializeLogger() {
	var cfg zap.Config

	if config.IsProduction() {
		cfg = zap.NewProductionConfig()
		logLevel.SetLevel(parseLevel(config.AppConfig.LogLevel, zapcore.InfoLevel))
	} else {
		cfg = zap.NewDevelopmentConfig()
		logLevel.SetLevel(parseLevel(config.AppConfig.LogLevel, zapcore.DebugLevel))
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = logLevel

	// Create logger
	var err error
	Logger, err = cfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	zap.ReplaceGlobals(Logger)
}

// GetLogger retrieves the global logger
func GetLogger() *zap.Logger {
	if Logger == nil {
		InitializeLogger()
	}
	return Logger
}

// SetLogLevel changes the level of the global logger; unknown names are ignored.
func SetLogLevel(name string) {
	if name == "" {
		return
	}
	lvl := parseLevel(name, logLevel.Level())
	if lvl != logLevel.Level() {
		logLevel.SetLevel(lvl)
		GetLogger().Info("log level changed", zap.String("level", lvl.String()))
	}
}

func parseLevel(name string, fallback zapcore.Level) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return fallback
	}
	return lvl
}
