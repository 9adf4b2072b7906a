package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Уровни логирования
const (
	DEBUG = "DEBUG"
	INFO  = "INFO"
	WARN  = "WARN"
	ERROR = "ERROR"
)

// Options настраивает глобальный логгер.
type Options struct {
	// Debug включает уровень DEBUG.
	Debug bool

	// Dir - каталог для файлов лога. Пустая строка отключает запись в файл.
	Dir string

	// Name - префикс имени файла: <Dir>/<Name>-<0|1|2>.log
	Name string
}

var (
	mu      sync.RWMutex
	current = zap.NewNop()
	logFile *os.File
)

// Init (пере)создаёт глобальный логгер: консоль + файл с круговой ротацией.
func Init(opts Options) error {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEnc := zapcore.NewConsoleEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stdout), level),
	}

	var f *os.File
	if opts.Dir != "" {
		name := opts.Name
		if name == "" {
			name = "ez30"
		}
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log dir %s: %w", opts.Dir, err)
		}

		logPath, suffix := getLogFilePath(opts.Dir, name, time.Now())
		rotateLogs(opts.Dir, name, suffix)

		var err error
		f, err = os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", logPath, err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())

	mu.Lock()
	prev := logFile
	current, logFile = logger, f
	mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return nil
}

// L возвращает текущий логгер. До Init это no-op логгер.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set подменяет глобальный логгер (тесты, встраивание в чужое приложение).
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	current = l
	mu.Unlock()
}

// Sync сбрасывает буферы логгера.
func Sync() {
	_ = L().Sync()
}

func Debug(msg string, fields ...zap.Field) { L().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { L().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { L().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { L().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...) }

// LogMessage пишет сообщение с текстовым уровнем.
func LogMessage(level, message string) {
	l := L().WithOptions(zap.AddCallerSkip(1))
	switch level {
	case DEBUG:
		l.Debug(message)
	case WARN:
		l.Warn(message)
	case ERROR:
		l.Error(message)
	default:
		l.Info(message)
	}
}

// PrintIfErr логирует *err, если он не nil.
func PrintIfErr(msg string, err *error) {
	if err == nil || *err == nil {
		return
	}
	L().WithOptions(zap.AddCallerSkip(1)).Error(msg, zap.Error(*err))
}

// getLogFilePath определяет имя файла лога и возвращает суффикс для ротации:
// дни 1-9 -> 0, 10-19 -> 1, 20-31 -> 2.
func getLogFilePath(dir, name string, now time.Time) (string, int) {
	day := now.Day()
	var suffix int
	switch {
	case day <= 9:
		suffix = 0
	case day <= 19:
		suffix = 1
	default:
		suffix = 2
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%d.log", name, suffix)), suffix
}

// rotateLogs реализует "круговую" ротацию: перед записью в файл с суффиксом N
// удаляется файл N+1, чтобы к следующей декаде он начинался с чистого листа.
func rotateLogs(dir, name string, currentSuffix int) {
	if currentSuffix < 0 || currentSuffix > 2 {
		return
	}
	next := (currentSuffix + 1) % 3
	fileToDelete := filepath.Join(dir, fmt.Sprintf("%s-%d.log", name, next))

	if _, err := os.Stat(fileToDelete); err == nil {
		if err := os.Remove(fileToDelete); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] failed to remove %s: %v\n", fileToDelete, err)
		}
	}
}
