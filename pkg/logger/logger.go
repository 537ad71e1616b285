package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the minimum severity a Logger emits.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARNING
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "debug"
	case INFO:
		return "info"
	case WARNING:
		return "warning"
	case ERROR:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARNING:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel accepts debug, info, warn, warning and error (any case).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "", "info":
		return INFO, nil
	case "warn", "warning":
		return WARNING, nil
	case "error":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("invalid log level %q", s)
}

// Config selects level, encoding and an optional rotated log file.
type Config struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // console or json
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DefaultConfig logs INFO and above to stdout in console format.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// Logger wraps a zap sugared logger behind the leveled API used across the
// module.
type Logger struct {
	sugar  *zap.SugaredLogger
	level  zap.AtomicLevel
	closer io.Closer
}

func wrap(sugar *zap.SugaredLogger, level zap.AtomicLevel, closer io.Closer) *Logger {
	return &Logger{sugar: sugar, level: level, closer: closer}
}

// callerOpts skip the one wrapper frame between callers and zap: a Logger
// method, or a package-level function, which calls sugar directly.
func callerOpts() []zap.Option {
	return []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// New builds a console-encoded logger writing every level to output.
func New(output io.Writer, minLevel Level) *Logger {
	level := zap.NewAtomicLevelAt(minLevel.zapLevel())
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(output), level)
	return wrap(zap.New(core, callerOpts()...).Sugar(), level, nil)
}

// Default logs to stdout, with ERROR going to stderr.
func Default() *Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	enc := zapcore.NewConsoleEncoder(encoderConfig())
	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l < zapcore.ErrorLevel
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l >= zapcore.ErrorLevel
	})
	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), low),
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), high),
	)
	return wrap(zap.New(core, callerOpts()...).Sugar(), level, nil)
}

// NewFromConfig builds the process logger. Console output goes to stderr so
// it does not interleave with the interactive shell on stdout; when File is
// set a JSON copy is written to a lumberjack-rotated file.
func NewFromConfig(cfg Config) (*Logger, error) {
	minLevel, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	level := zap.NewAtomicLevelAt(minLevel.zapLevel())

	var enc zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "", "console":
		enc = zapcore.NewConsoleEncoder(encoderConfig())
	case "json":
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)}

	var closer io.Closer
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		fileEnc := zap.NewProductionEncoderConfig()
		fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), zapcore.AddSync(rotator), level))
		closer = rotator
	}

	zl := zap.New(zapcore.NewTee(cores...), callerOpts()...)
	return wrap(zl.Sugar(), level, closer), nil
}

// Nop discards everything.
func Nop() *Logger {
	return wrap(zap.NewNop().Sugar(), zap.NewAtomicLevelAt(zapcore.FatalLevel), nil)
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return wrap(l.sugar.With(keysAndValues...), l.level, l.closer)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

func (l *Logger) Warning(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Warningf(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// SetLevel changes the minimum level of l and every logger derived from it.
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// Close flushes buffered entries and closes the rotated file, if any.
func (l *Logger) Close() error {
	_ = l.sugar.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Global logger instance
var defaultLogger = Default()

// SetDefault replaces the logger behind the package-level functions.
func SetDefault(l *Logger) {
	defaultLogger = l
}

func Info(msg string, keysAndValues ...interface{}) {
	defaultLogger.sugar.Infow(msg, keysAndValues...)
}

func Infof(format string, v ...interface{}) {
	defaultLogger.sugar.Infof(format, v...)
}

func Warning(msg string, keysAndValues ...interface{}) {
	defaultLogger.sugar.Warnw(msg, keysAndValues...)
}

func Warningf(format string, v ...interface{}) {
	defaultLogger.sugar.Warnf(format, v...)
}

func Error(msg string, keysAndValues ...interface{}) {
	defaultLogger.sugar.Errorw(msg, keysAndValues...)
}

func Errorf(format string, v ...interface{}) {
	defaultLogger.sugar.Errorf(format, v...)
}

func Debug(msg string, keysAndValues ...interface{}) {
	defaultLogger.sugar.Debugw(msg, keysAndValues...)
}

func Debugf(format string, v ...interface{}) {
	defaultLogger.sugar.Debugf(format, v...)
}

// SetLevel sets the minimum level of the global logger.
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}
