package gwlog

import (
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// DebugLevel level
	DebugLevel Level = Level(zap.DebugLevel)
	// InfoLevel level
	InfoLevel Level = Level(zap.InfoLevel)
	// WarnLevel level
	WarnLevel Level = Level(zap.WarnLevel)
	// ErrorLevel level
	ErrorLevel Level = Level(zap.ErrorLevel)
	// PanicLevel level
	PanicLevel Level = Level(zap.PanicLevel)
	// FatalLevel level
	FatalLevel Level = Level(zap.FatalLevel)

	// Debugf logs formatted debug message
	Debugf logFormatFunc
	// Infof logs formatted info message
	Infof logFormatFunc
	// Warnf logs formatted warn message
	Warnf logFormatFunc
	// Errorf logs formatted error message
	Errorf logFormatFunc
	Panicf logFormatFunc
	Fatalf logFormatFunc
	Fatal  func(args ...interface{})
	Panic  func(args ...interface{})
)

type logFormatFunc func(format string, args ...interface{})

// Level is type of log levels
type Level zapcore.Level

var (
	lock         sync.Mutex
	level        = zap.NewAtomicLevelAt(zap.DebugLevel)
	outputWriter io.Writer = os.Stderr
	source       string
	logger       *zap.Logger
)

func init() {
	rebuild()
}

// rebuild recreates the logger after output or source changes; level changes apply in place
func rebuild() {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "message",
		CallerKey:      "caller",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(outputWriter), level)
	logger = zap.New(core, zap.AddCaller())
	if source != "" {
		logger = logger.With(zap.String("source", source))
	}
	setSugar(logger.Sugar())
}

func setSugar(sugar *zap.SugaredLogger) {
	Debugf = sugar.Debugf
	Infof = sugar.Infof
	Warnf = sugar.Warnf
	Errorf = sugar.Errorf
	Panicf = sugar.Panicf
	Panic = sugar.Panic
	Fatalf = sugar.Fatalf
	Fatal = sugar.Fatal
}

// SetSource sets the component name (world/channelN/login) of gwlog module
func SetSource(comp string) {
	lock.Lock()
	defer lock.Unlock()
	source = comp
	rebuild()
}

// SetLevel sets the log level
func SetLevel(lv Level) {
	level.SetLevel(zapcore.Level(lv))
}

// GetLevel returns the current log level
func GetLevel() Level {
	return Level(level.Level())
}

// TraceError prints the stack and error
func TraceError(format string, args ...interface{}) {
	Errorf(format, args...)
	outputWriter.Write(debug.Stack())
}

// SetOutput sets the output writer
func SetOutput(out io.Writer) {
	lock.Lock()
	defer lock.Unlock()
	outputWriter = out
	rebuild()
}

// GetOutput returns the output writer
func GetOutput() io.Writer {
	return outputWriter
}

// Sync flushes buffered logs
func Sync() {
	logger.Sync()
}

// ParseLevel converts string to Levels
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "panic":
		return PanicLevel
	case "fatal":
		return FatalLevel
	}
	Errorf("ParseLevel: unknown level: %s", s)
	return DebugLevel
}
