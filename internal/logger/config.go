package logger

import (
	"io"
	"os"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvConfig is the server logger configuration read from LOG_* variables.
type EnvConfig struct {
	Level       string    // LOG_LEVEL: debug, info, warn, error
	Format      string    // LOG_FORMAT: json, text
	Output      io.Writer // overrides every other output setting when set
	ServiceName string    // SERVICE_NAME

	// Environment is APP_ENV. "local" always logs to stdout and never to a file.
	Environment string

	LogFile     string // LOG_FILE
	LogFileOnly bool   // LOG_FILE_ONLY: skip stdout outside local
	Rotation    Rotation
}

// Rotation bounds the size and age of LogFile.
type Rotation struct {
	MaxSizeMB  int  // LOG_MAX_SIZE
	MaxBackups int  // LOG_MAX_BACKUPS
	MaxAgeDays int  // LOG_MAX_AGE
	Compress   bool // LOG_COMPRESS
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *EnvConfig {
	return &EnvConfig{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "json"),
		ServiceName: getEnv("SERVICE_NAME", "figureimg"),
		Environment: getEnv("APP_ENV", "local"),

		LogFile:     getEnv("LOG_FILE", "/var/log/figureimg/app.log"),
		LogFileOnly: getEnvBool("LOG_FILE_ONLY", false),
		Rotation: Rotation{
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 7),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
	}
}

// fileOutput reports whether logs go to the rotating file.
func (c *EnvConfig) fileOutput() bool {
	return c.Environment != "local" && c.LogFile != ""
}

// writer assembles the configured outputs. Opening a rotating file records
// it for Sync.
func (c *EnvConfig) writer() io.Writer {
	if c.Output != nil {
		return c.Output
	}

	var writers []io.Writer
	if !c.fileOutput() || !c.LogFileOnly {
		writers = append(writers, os.Stdout)
	}
	if c.fileOutput() {
		file := &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    c.Rotation.MaxSizeMB,
			MaxBackups: c.Rotation.MaxBackups,
			MaxAge:     c.Rotation.MaxAgeDays,
			Compress:   c.Rotation.Compress,
		}
		writers = append(writers, file)

		rotatedMu.Lock()
		rotated = file
		rotatedMu.Unlock()
	}
	if len(writers) == 1 {
		return writers[0]
	}
	return io.MultiWriter(writers...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	i, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return i
}
