package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"eppdetect/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides leveled logging (debug/info/warning/error) to per-level
// files and the console.
type Logger struct {
	sugar  *zap.SugaredLogger
	logDir string
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	level := zapcore.InfoLevel
	if err := level.Set(config.LogLevel); err != nil {
		level = zapcore.InfoLevel
	}

	l := &Logger{logDir: config.LogDirectory}
	l.sugar = zap.New(l.buildCore(level), zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
	return l
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// buildCore tees a console core with one file core per level.
func (l *Logger) buildCore(level zapcore.Level) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCfg := encCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	fileEncoder := zapcore.NewConsoleEncoder(encCfg)

	only := func(lvl zapcore.Level) zap.LevelEnablerFunc {
		return func(lv zapcore.Level) bool { return lv == lvl && lv >= level }
	}

	return zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(fileEncoder, l.openLogFile("info.log"), zap.LevelEnablerFunc(func(lv zapcore.Level) bool {
			return lv <= zapcore.InfoLevel && lv >= level
		})),
		zapcore.NewCore(fileEncoder, l.openLogFile("warning.log"), only(zapcore.WarnLevel)),
		zapcore.NewCore(fileEncoder, l.openLogFile("error.log"), zap.LevelEnablerFunc(func(lv zapcore.Level) bool {
			return lv >= zapcore.ErrorLevel
		})),
	)
}

// openLogFile opens or creates a log file for appending.
func (l *Logger) openLogFile(filename string) zapcore.WriteSyncer {
	path := filepath.Join(l.logDir, filename)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file %s: %v", path, err)
	}
	return zapcore.AddSync(file)
}

// With returns a child logger that adds the given key/value pairs to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...), logDir: l.logDir}
}

// Debug writes a formatted debug-level log entry.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	if l.logDir == "" {
		return nil
	}
	filePath := filepath.Join(l.logDir, filepath.Base(fileName))
	if err := os.Truncate(filePath, 0); err != nil {
		l.Error("Error truncating log file %s: %v", fileName, err)
		return fmt.Errorf("truncate %s: %w", fileName, err)
	}

	l.Info("File %s has been cleared.", fileName)
	return nil
}
