package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LogWriter is the writer used for application and database logs.
var LogWriter io.Writer = os.Stdout

// InitLogging prepares the log file, points the standard logger at it and
// returns a zerolog logger writing to the same place.
func InitLogging(settings *Settings) (*os.File, zerolog.Logger) {
	logFile := openLogFile(settings.LogFile)
	if logFile != nil {
		LogWriter = io.MultiWriter(os.Stdout, logFile)
	} else {
		LogWriter = os.Stdout
	}
	log.SetOutput(LogWriter)

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(settings.LogLevel)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(zerolog.SyncWriter(LogWriter)).
		Level(level).
		With().
		Timestamp().
		Str("service", settings.OTelServiceName).
		Logger()
	return logFile, logger
}

func openLogFile(path string) *os.File {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create logs directory: %v", err)
		return nil
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("Warning: Failed to open log file: %v", err)
		return nil
	}
	return logFile
}
