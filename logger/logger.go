// Package logger builds the process-wide zap logger and hands out
// request-scoped children.
package logger

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	RequestIDKey    = "X-Request-ID"
	ContextKey      = "logger"
	RequestIDCtxKey = "request_id"
)

type Config struct {
	Level string `yaml:"level"`
	// Production selects the JSON encoder; otherwise the console encoder
	// with coloured levels is used.
	Production bool `yaml:"production"`
	// File, when set, adds a rotating file sink next to stdout.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

var (
	mu  sync.RWMutex
	log *zap.Logger
)

// New builds a logger from cfg without touching the global one.
func New(cfg Config) *zap.Logger {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if cfg.Production {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}

	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		}
		// Files always get JSON regardless of the console format.
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(rotating), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// Init builds the global logger.
func Init(cfg Config) *zap.Logger {
	l := New(cfg)
	mu.Lock()
	log = l
	mu.Unlock()
	l.Info("logger initialized", zap.String("level", cfg.Level), zap.String("file", cfg.File))
	return l
}

// Get returns the global logger, falling back to a production logger if
// Init was never called.
func Get() *zap.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		fallback, err := zap.NewProduction()
		if err != nil {
			panic("failed to create fallback logger: " + err.Error())
		}
		log = fallback
	}
	return log
}

// FromContext returns the request logger stored by the request ID
// middleware, or the global logger tagged with whatever request id is known.
func FromContext(c *gin.Context) *zap.Logger {
	if l, ok := c.Get(ContextKey); ok {
		if zl, ok := l.(*zap.Logger); ok {
			return zl
		}
	}

	requestID := c.GetString(RequestIDCtxKey)
	if requestID == "" {
		requestID = c.GetHeader(RequestIDKey)
	}
	if requestID == "" {
		requestID = "unknown"
	}
	return Get().With(zap.String("request_id", requestID))
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
