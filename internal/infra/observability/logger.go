package observability

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a structured zap logger writing to w (stderr when nil).
// debug level → colorized console; otherwise → compact JSON at the given
// level, warn when the level is empty or unknown.
func NewLogger(level string, w io.Writer) *zap.Logger {
	if w == nil {
		w = os.Stderr
	}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := zapcore.WarnLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil && level != "" {
		lvl = parsed
	}

	var encoder zapcore.Encoder
	if lvl == zapcore.DebugLevel {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(enc)
	} else {
		encoder = zapcore.NewJSONEncoder(enc)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(lvl))
	return zap.New(core, zap.AddCaller())
}
