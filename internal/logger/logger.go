package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultLogFile = "petfeed.log"

// Log is the process-wide logger. It discards everything until Initialize runs.
var Log = zap.NewNop()

// Initialize logs to stdout for people and to a rotated JSON file for machines.
// An empty level means info and an empty file means petfeed.log.
func Initialize(logLevel string, logFile string) error {
	if logFile == "" {
		logFile = defaultLogFile
	}
	level := ParseLevel(logLevel)

	jsonConfig := zap.NewProductionEncoderConfig()
	jsonConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(jsonConfig), zapcore.AddSync(rotatingFile(logFile)), level),
	)
	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	Log.Info("Logger initialized",
		zap.Stringer("level", level),
		zap.String("file", logFile),
	)
	return nil
}

// rotatingFile keeps a week of logs in 100 MB compressed segments
func rotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     7,
		Compress:   true,
	}
}

// Close flushes the logger before shutdown
func Close() error {
	if Log != nil {
		return Log.Sync()
	}
	return nil
}

// ParseLevel converts string to zapcore.Level, defaulting to info
func ParseLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// WarnWithFields logs msg at warn level; a nil err adds no field
func WarnWithFields(msg string, err error) {
	Log.Warn(msg, zap.Error(err))
}

func ErrorWithFields(msg string, err error) {
	Log.Error(msg, zap.Error(err))
}

// FatalWithFields logs and exits the process
func FatalWithFields(msg string, err error) {
	Log.Fatal(msg, zap.Error(err))
}

func WithRequestID(requestID string) zap.Field {
	return zap.String("request_id", requestID)
}

func WithUserID(userID string) zap.Field {
	return zap.String("user_id", userID)
}

func WithPostID(postID string) zap.Field {
	return zap.String("post_id", postID)
}

func WithFeedType(feedType string) zap.Field {
	return zap.String("feed_type", feedType)
}

func WithIP(ip string) zap.Field {
	return zap.String("ip", ip)
}

func WithStatus(status int) zap.Field {
	return zap.Int("status", status)
}

func WithDuration(duration interface{}) zap.Field {
	return zap.Any("duration", duration)
}
