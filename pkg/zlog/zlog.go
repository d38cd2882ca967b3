package zlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/yola1107/kratos/v2/log"
)

var _ log.Logger = (*Logger)(nil)

const (
	defaultFieldCapacity = 16
	sensitiveMask        = "******"
)

type Mode string

const (
	Development Mode = "dev"
	Production  Mode = "prod"
)

type Config struct {
	Mode          Mode     `yaml:"mode" json:"mode" env:"MODE"`
	Level         string   `yaml:"level" json:"level" env:"LEVEL"`
	Directory     string   `yaml:"directory" json:"directory" env:"DIRECTORY"`
	Filename      string   `yaml:"filename" json:"filename"`
	ErrorFilename string   `yaml:"error_filename" json:"error_filename"`
	MaxSize       int      `yaml:"max_size" json:"max_size"`
	MaxAge        int      `yaml:"max_age" json:"max_age"`
	MaxBackups    int      `yaml:"max_backups" json:"max_backups"`
	Compress      bool     `yaml:"compress" json:"compress"`
	LocalTime     bool     `yaml:"local_time" json:"local_time"`
	SensitiveKeys []string `yaml:"sensitive_keys" json:"sensitive_keys"`
}

func DefaultConfig() *Config {
	return &Config{
		Mode:          Development,
		Level:         "debug",
		Directory:     "./logs",
		Filename:      "app.log",
		ErrorFilename: "error.log",
		MaxSize:       50,
		MaxAge:        7,
		MaxBackups:    3,
		LocalTime:     true,
		SensitiveKeys: []string{"password", "token", "secret"},
	}
}

// Logger is a kratos log.Logger backed by zap.
type Logger struct {
	*zap.Logger
	config    *Config
	encoder   zapcore.EncoderConfig
	level     zap.AtomicLevel
	sensitive map[string]struct{}
	resources []io.Closer
	fieldPool *sync.Pool
	closeOnce sync.Once
}

// New panics on initialization errors.
func New(cfg *Config) *Logger {
	logger, err := NewWithError(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return logger
}

func NewWithError(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	encoderConfig := encoderConfigOf(cfg.Mode)
	cores, resources, err := createCores(cfg, level, encoderConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create log cores: %w", err)
	}

	return &Logger{
		config:    cfg,
		encoder:   encoderConfig,
		level:     level,
		sensitive: sensitiveSet(cfg.SensitiveKeys),
		resources: resources,
		Logger: zap.New(
			zapcore.NewTee(cores...),
			zap.AddCaller(),
			zap.AddCallerSkip(2),
			zap.AddStacktrace(zap.PanicLevel),
		),
		fieldPool: &sync.Pool{
			New: func() interface{} {
				return make([]zap.Field, 0, defaultFieldCapacity)
			},
		},
	}, nil
}

func sensitiveSet(keys []string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[strings.ToLower(k)] = struct{}{}
	}
	return m
}

func createCores(cfg *Config, level zap.AtomicLevel, encoderConfig zapcore.EncoderConfig) ([]zapcore.Core, []io.Closer, error) {
	var (
		cores     []zapcore.Core
		resources []io.Closer
	)

	// 生产模式: 按大小切割的 app.log / error.log
	if cfg.Mode == Production {
		if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		infoWriter := rotating(cfg, cfg.Filename)
		errorWriter := rotating(cfg, cfg.ErrorFilename)
		resources = append(resources, infoWriter, errorWriter)

		encoder := zapcore.NewJSONEncoder(encoderConfig)
		cores = append(cores,
			zapcore.NewCore(encoder, zapcore.AddSync(infoWriter), level),
			zapcore.NewCore(encoder, zapcore.AddSync(errorWriter), zap.ErrorLevel),
		)
	}

	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)
	cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level))
	return cores, resources, nil
}

func rotating(cfg *Config, name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, name),
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	}
}

func encoderConfigOf(mode Mode) zapcore.EncoderConfig {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		FunctionKey:      zapcore.OmitKey,
		MessageKey:       "msg",
		StacktraceKey:    "stack",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.LowercaseLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: "| ",
	}
	if mode == Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		encoderConfig.ConsoleSeparator = " "
	}
	return encoderConfig
}

func (l *Logger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}

	var msg string
	fields := l.fieldPool.Get().([]zap.Field)
	defer func() {
		fields = fields[:0]
		l.fieldPool.Put(fields)
	}()

	for i := 0; i < len(keyvals); i += 2 {
		if i+1 >= len(keyvals) {
			fields = append(fields, zap.Any(fmt.Sprint(keyvals[i]), "(MISSING)"))
			continue
		}
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keyvals[i])
		}
		if key == l.encoder.MessageKey {
			msg, _ = keyvals[i+1].(string)
			continue
		}
		fields = append(fields, l.field(key, keyvals[i+1]))
	}

	switch level {
	case log.LevelDebug:
		l.Debug(msg, fields...)
	case log.LevelInfo:
		l.Info(msg, fields...)
	case log.LevelWarn:
		l.Warn(msg, fields...)
	case log.LevelError:
		l.Error(msg, fields...)
	case log.LevelFatal:
		l.Fatal(msg, fields...)
	}
	return nil
}

// field masks values whose key is configured as sensitive.
func (l *Logger) field(key string, val interface{}) zap.Field {
	if _, ok := l.sensitive[strings.ToLower(key)]; ok {
		return zap.String(key, sensitiveMask)
	}
	return zap.Any(key, val)
}

func (l *Logger) Sync() error {
	return l.Logger.Sync()
}

func (l *Logger) Close() error {
	var errs []error
	l.closeOnce.Do(func() {
		// stderr sync fails on some terminals, ignore it
		_ = l.Sync()
		for _, res := range l.resources {
			if err := res.Close(); err != nil {
				errs = append(errs, fmt.Errorf("resource close error: %w", err))
			}
		}
		l.resources = nil
	})
	return errors.Join(errs...)
}

func (l *Logger) SetLevel(level string) error {
	if err := l.level.UnmarshalText([]byte(level)); err != nil {
		return err
	}
	l.Logger.Info("log level changed", zap.String("level", level))
	return nil
}

func (l *Logger) GetLevel() string {
	return l.level.Level().String()
}

func (l *Logger) NewHelper(keys ...interface{}) *log.Helper {
	return log.NewHelper(l.With(keys...))
}

func (l *Logger) With(keys ...interface{}) *Logger {
	fields := make([]zap.Field, 0, len(keys)/2)
	for i := 0; i+1 < len(keys); i += 2 {
		key, ok := keys[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, l.field(key, keys[i+1]))
	}
	return &Logger{
		Logger:    l.Logger.With(fields...),
		config:    l.config,
		encoder:   l.encoder,
		level:     l.level,
		sensitive: l.sensitive,
		fieldPool: l.fieldPool,
	}
}
