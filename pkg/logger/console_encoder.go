package logger

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// customLevelKey carries the project-level level name through zap fields so
// the console encoder can render SUCCESS distinctly from INFO.
const customLevelKey = "customlevel"

const (
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiReset  = "\x1b[0m"
)

var bufPool = buffer.NewPool()

// consoleEncoder renders "time  LEVEL  message  key=value ..." lines, with
// the level prefix colored when colors are enabled.
type consoleEncoder struct {
	cfg        zapcore.EncoderConfig
	colors     bool
	timeLayout string
	context    []zapcore.Field
}

func newConsoleEncoder(cfg zapcore.EncoderConfig, colors bool) zapcore.Encoder {
	return &consoleEncoder{cfg: cfg, colors: colors, timeLayout: time.RFC3339}
}

func (e *consoleEncoder) Clone() zapcore.Encoder {
	clone := &consoleEncoder{cfg: e.cfg, colors: e.colors, timeLayout: e.timeLayout}
	clone.context = append(clone.context, e.context...)
	return clone
}

func levelColor(name string) string {
	switch name {
	case "DEBUG":
		return ansiBlue
	case "SUCCESS":
		return ansiGreen
	case "WARN":
		return ansiYellow
	case "ERROR", "FATAL":
		return ansiRed
	default:
		return ""
	}
}

func (e *consoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := bufPool.Get()

	line.AppendString(ent.Time.Format(e.timeLayout))
	line.AppendString("  ")

	// Level prefix: prefer the custom level field, fall back to zap's level.
	levelName := ent.Level.CapitalString()
	all := make([]zapcore.Field, 0, len(e.context)+len(fields))
	all = append(all, e.context...)
	for _, f := range fields {
		if f.Key == customLevelKey && f.Type == zapcore.StringType {
			levelName = f.String
			continue
		}
		all = append(all, f)
	}

	if c := levelColor(levelName); e.colors && c != "" {
		line.AppendString(c)
		line.AppendString(levelName)
		line.AppendString(ansiReset)
	} else {
		line.AppendString(levelName)
	}
	line.AppendString("  ")
	line.AppendString(ent.Message)

	if len(all) > 0 {
		enc := zapcore.NewMapObjectEncoder()
		for _, f := range all {
			f.AddTo(enc)
		}
		keys := make([]string, 0, len(enc.Fields))
		for k := range enc.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			line.AppendString("  ")
			line.AppendString(k)
			line.AppendByte('=')
			line.AppendString(fmt.Sprintf("%v", enc.Fields[k]))
		}
	}

	line.AppendString("\n")
	return line, nil
}

// The zapcore.ObjectEncoder methods below accumulate With()-style context
// fields so they survive Clone and show up on every entry.

func (e *consoleEncoder) AddArray(key string, marshaler zapcore.ArrayMarshaler) error {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.ArrayMarshalerType, Interface: marshaler})
	return nil
}

func (e *consoleEncoder) AddObject(key string, marshaler zapcore.ObjectMarshaler) error {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.ObjectMarshalerType, Interface: marshaler})
	return nil
}

func (e *consoleEncoder) AddBinary(key string, value []byte) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.BinaryType, Interface: value})
}

func (e *consoleEncoder) AddByteString(key string, value []byte) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.ByteStringType, Interface: value})
}

func (e *consoleEncoder) AddBool(key string, value bool) {
	var iv int64
	if value {
		iv = 1
	}
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.BoolType, Integer: iv})
}

func (e *consoleEncoder) AddComplex128(key string, value complex128) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.Complex128Type, Interface: value})
}

func (e *consoleEncoder) AddComplex64(key string, value complex64) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.Complex64Type, Interface: value})
}

func (e *consoleEncoder) AddDuration(key string, value time.Duration) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.DurationType, Integer: int64(value)})
}

func (e *consoleEncoder) AddFloat64(key string, value float64) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.Float64Type, Integer: int64(math.Float64bits(value))})
}

func (e *consoleEncoder) AddFloat32(key string, value float32) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.Float32Type, Integer: int64(math.Float32bits(value))})
}

func (e *consoleEncoder) AddInt(key string, value int)     { e.AddInt64(key, int64(value)) }
func (e *consoleEncoder) AddInt32(key string, value int32) { e.AddInt64(key, int64(value)) }
func (e *consoleEncoder) AddInt16(key string, value int16) { e.AddInt64(key, int64(value)) }
func (e *consoleEncoder) AddInt8(key string, value int8)   { e.AddInt64(key, int64(value)) }

func (e *consoleEncoder) AddInt64(key string, value int64) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.Int64Type, Integer: value})
}

func (e *consoleEncoder) AddString(key, value string) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.StringType, String: value})
}

func (e *consoleEncoder) AddTime(key string, value time.Time) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.TimeFullType, Interface: value})
}

func (e *consoleEncoder) AddUint(key string, value uint)     { e.AddUint64(key, uint64(value)) }
func (e *consoleEncoder) AddUint32(key string, value uint32) { e.AddUint64(key, uint64(value)) }
func (e *consoleEncoder) AddUint16(key string, value uint16) { e.AddUint64(key, uint64(value)) }
func (e *consoleEncoder) AddUint8(key string, value uint8)   { e.AddUint64(key, uint64(value)) }
func (e *consoleEncoder) AddUintptr(key string, value uintptr) {
	e.AddUint64(key, uint64(value))
}

func (e *consoleEncoder) AddUint64(key string, value uint64) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.Uint64Type, Integer: int64(value)})
}

func (e *consoleEncoder) AddReflected(key string, value interface{}) error {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.ReflectType, Interface: value})
	return nil
}

func (e *consoleEncoder) OpenNamespace(key string) {}
