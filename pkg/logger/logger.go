// Package logger wraps zap with the log levels this project actually uses,
// including a SUCCESS level rendered distinctively on the console. Console
// output goes through a custom encoder (colored or plain); file output, when
// enabled, is JSON and rotated by lumberjack.
package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the project-level log level. SuccessLevel has no zap equivalent;
// it is logged at zap's InfoLevel and recognized by the console encoder via
// the "customlevel" field.
type Level int8

const (
	DebugLevel Level = iota - 1
	InfoLevel
	SuccessLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// String returns the lowercase name of the level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case SuccessLevel:
		return "success"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	default:
		return fmt.Sprintf("level(%d)", l)
	}
}

// CapitalString returns the uppercase name of the level, as printed in the
// console prefix.
func (l Level) CapitalString() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case SuccessLevel:
		return "SUCCESS"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", l)
	}
}

// ToZapLevel maps a Level onto the zapcore level it is logged at.
func (l Level) ToZapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel, SuccessLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Options configures a Logger.
type Options struct {
	ConsoleLevel    Level
	ColorConsole    bool
	TimestampFormat string

	// File output is JSON and disabled unless FileOutput is set.
	FileOutput  bool
	FileLevel   Level
	LogFilePath string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
}

// DefaultOptions logs INFO+ to a colored console and keeps file output off.
func DefaultOptions() Options {
	return Options{
		ConsoleLevel:    InfoLevel,
		ColorConsole:    true,
		TimestampFormat: time.RFC3339,
		FileLevel:       DebugLevel,
		LogFilePath:     "nodestate.log",
		MaxSizeMB:       50,
		MaxBackups:      3,
		MaxAgeDays:      28,
	}
}

// Logger is a thin wrapper over zap's SugaredLogger carrying the options it
// was built with.
type Logger struct {
	sugar *zap.SugaredLogger
	opts  Options
}

var (
	globalLogger *Logger
	initOnce     sync.Once
)

// Init configures the global logger. Safe to call once; later calls are
// no-ops. Commands call this from their PersistentPreRun.
func Init(opts Options) {
	initOnce.Do(func() {
		l, err := New(opts)
		if err != nil {
			// Fall back to a bare production logger rather than running silent.
			z, _ := zap.NewProduction()
			globalLogger = &Logger{sugar: z.Sugar(), opts: opts}
			globalLogger.Errorf("logger init failed, using fallback: %v", err)
			return
		}
		globalLogger = l
	})
}

// Get returns the global logger, initializing it with defaults if Init was
// never called.
func Get() *Logger {
	if globalLogger == nil {
		Init(DefaultOptions())
	}
	return globalLogger
}

// New builds an independent Logger from opts.
func New(opts Options) (*Logger, error) {
	if opts.TimestampFormat == "" {
		opts.TimestampFormat = time.RFC3339
	}

	var cores []zapcore.Core

	consoleCfg := zap.NewProductionEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout(opts.TimestampFormat)
	consoleCfg.TimeKey = "time"
	consoleCfg.LevelKey = "" // the console encoder renders its own level prefix
	consoleCfg.MessageKey = "msg"

	var consoleEnc zapcore.Encoder
	if opts.ColorConsole {
		consoleEnc = newConsoleEncoder(consoleCfg, true)
	} else {
		consoleEnc = newConsoleEncoder(consoleCfg, false)
	}
	consoleEnabler := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= opts.ConsoleLevel.ToZapLevel()
	})
	cores = append(cores, zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stdout), consoleEnabler))

	if opts.FileOutput {
		if opts.LogFilePath == "" {
			return nil, fmt.Errorf("log file path cannot be empty when file output is enabled")
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.TimeEncoderOfLayout(opts.TimestampFormat)
		fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.LogFilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		})
		fileEnabler := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= opts.FileLevel.ToZapLevel()
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), fileWriter, fileEnabler))
	}

	z := zap.New(zapcore.NewTee(cores...))
	return &Logger{sugar: z.Sugar(), opts: opts}, nil
}

// With returns a child logger with the given structured key/value context.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(args...), opts: l.opts}
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) log(level Level, template string, args ...interface{}) {
	if l == nil || l.sugar == nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", level.CapitalString(), fmt.Sprintf(template, args...))
		if level == FatalLevel {
			os.Exit(1)
		}
		return
	}
	msg := fmt.Sprintf(template, args...)
	// The console encoder picks the prefix from this field, which is how
	// SUCCESS gets its own rendering despite being InfoLevel in zap.
	field := zap.String(customLevelKey, level.CapitalString())
	switch level {
	case DebugLevel:
		l.sugar.Debugw(msg, field)
	case InfoLevel, SuccessLevel:
		l.sugar.Infow(msg, field)
	case WarnLevel:
		l.sugar.Warnw(msg, field)
	case ErrorLevel:
		l.sugar.Errorw(msg, field)
	case FatalLevel:
		l.sugar.Fatalw(msg, field)
	default:
		l.sugar.Infow(msg, field)
	}
}

func (l *Logger) Debugf(template string, args ...interface{}) { l.log(DebugLevel, template, args...) }
func (l *Logger) Infof(template string, args ...interface{})  { l.log(InfoLevel, template, args...) }

// Successf logs at SuccessLevel, shown green on a color console.
func (l *Logger) Successf(template string, args ...interface{}) {
	l.log(SuccessLevel, template, args...)
}
func (l *Logger) Warnf(template string, args ...interface{})  { l.log(WarnLevel, template, args...) }
func (l *Logger) Errorf(template string, args ...interface{}) { l.log(ErrorLevel, template, args...) }
func (l *Logger) Fatalf(template string, args ...interface{}) { l.log(FatalLevel, template, args...) }

// Global convenience functions mirroring the instance methods.

func Debugf(template string, args ...interface{})   { Get().Debugf(template, args...) }
func Infof(template string, args ...interface{})    { Get().Infof(template, args...) }
func Successf(template string, args ...interface{}) { Get().Successf(template, args...) }
func Warnf(template string, args ...interface{})    { Get().Warnf(template, args...) }
func Errorf(template string, args ...interface{})   { Get().Errorf(template, args...) }

// SyncGlobal flushes the global logger. Deferred from main.
func SyncGlobal() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}
