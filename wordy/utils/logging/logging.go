package logging

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	AppLogger     *zap.Logger = zap.NewNop()
	RequestLogger *zap.Logger = zap.NewNop()
	TimerLogger   *zap.Logger = zap.NewNop()
	ErrorLogger   *zap.Logger = zap.NewNop()
	// ReconcileLogger records divergence between revision rows and content
	// files, one JSON object per event, for an offline reconciliation job.
	ReconcileLogger *zap.Logger = zap.NewNop()
)

type ctxKey string

// TraceIDKey is the context key LogDuration reads the request id from.
const TraceIDKey ctxKey = "trace_id"

// ensureLogsDir makes sure the log folder exists
func ensureLogsDir(dir string) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		panic("Failed to create logs directory: " + err.Error())
	}
}

func rotating(dir, name string, maxSize, maxAge int) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename: filepath.Join(dir, name), MaxSize: maxSize, MaxAge: maxAge, Compress: true,
	})
}

// InitLogger wires every logger to its own rotating file under dir.
func InitLogger(dir string) {
	if dir == "" {
		dir = "./logs"
	}
	ensureLogsDir(dir)
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	// app.log also goes to stdout so container logs see startup and shutdown
	appCore := zapcore.NewTee(
		zapcore.NewCore(encoder, rotating(dir, "app.log", 100, 28), zap.InfoLevel),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zap.InfoLevel),
	)
	AppLogger = zap.New(appCore)

	RequestLogger = zap.New(zapcore.NewCore(encoder, rotating(dir, "request.log", 50, 7), zap.InfoLevel))
	TimerLogger = zap.New(zapcore.NewCore(encoder, rotating(dir, "timer.log", 50, 7), zap.InfoLevel))
	ErrorLogger = zap.New(zapcore.NewCore(encoder, rotating(dir, "error.log", 100, 30), zap.ErrorLevel), zap.AddCaller())
	ReconcileLogger = zap.New(zapcore.NewCore(encoder, rotating(dir, "reconcile.log", 100, 90), zap.InfoLevel))
}

// InitNop resets every logger to a no-op. Tests use it so nothing lands on disk.
func InitNop() {
	AppLogger = zap.NewNop()
	RequestLogger = zap.NewNop()
	TimerLogger = zap.NewNop()
	ErrorLogger = zap.NewNop()
	ReconcileLogger = zap.NewNop()
}

// Sync flushes buffered entries on every logger.
func Sync() {
	for _, l := range []*zap.Logger{AppLogger, RequestLogger, TimerLogger, ErrorLogger, ReconcileLogger} {
		_ = l.Sync()
	}
}

// LogDuration lets you do: defer logging.LogDuration(ctx, "FuncName")()
func LogDuration(ctx context.Context, name string) func() {
	start := time.Now()
	traceID, _ := ctx.Value(TraceIDKey).(string)

	return func() {
		duration := time.Since(start).Milliseconds()
		fields := []zap.Field{
			zap.String("func", name),
			zap.Int64("duration_ms", duration),
		}
		if traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}

		// write ONLY to timer.log
		TimerLogger.Info("Function timed", fields...)
	}
}
