package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = [...]string{DEBUG: "DEBUG", INFO: "INFO", WARN: "WARN", ERROR: "ERROR"}

func (l Level) String() string {
	if l < DEBUG || l > ERROR {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel reads a level name case-insensitively. Unknown names mean INFO.
func ParseLevel(s string) Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return WARN
	}
	for l, name := range levelNames {
		if name == s {
			return Level(l)
		}
	}
	return INFO
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand for creating a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config holds logger configuration
type Config struct {
	Level      Level  // Minimum log level
	FilePath   string // Path to log file, empty for none
	MaxSize    int64  // Max size in bytes before rotation
	MaxAge     int    // Max age in days before rotation
	MaxBackups int    // Max number of rotated files kept
	Console    bool   // Echo to stderr
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	logPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		logPath = filepath.Join(home, ".mtc", "logs", "mtc.log")
	}

	return Config{
		Level:      INFO,
		FilePath:   logPath,
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,
		MaxBackups: 5,
		Console:    false, // Keeps stdout/stderr clean for listings and the timer
	}
}

// sink is the output state shared by a logger and everything derived from it
type sink struct {
	mu      sync.Mutex
	config  Config
	file    *os.File
	writers []io.Writer
	console io.Writer
}

// Logger writes levelled entries with preset fields
type Logger struct {
	sink   *sink
	fields []Field
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Init initializes the global logger
func Init(config Config) error {
	var err error
	once.Do(func() {
		globalLogger, err = New(config)
	})
	return err
}

// New creates a new logger instance
func New(config Config) (*Logger, error) {
	s := &sink{config: config, console: os.Stderr}
	if err := s.open(); err != nil {
		return nil, err
	}
	return &Logger{sink: s}, nil
}

// NewWriter creates a logger writing only to w, for tests and tools
func NewWriter(w io.Writer, level Level) *Logger {
	return &Logger{sink: &sink{config: Config{Level: level}, writers: []io.Writer{w}}}
}

func (s *sink) open() error {
	s.writers = nil
	if s.config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(s.config.FilePath), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(s.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		s.file = file
		s.writers = append(s.writers, file)
	}
	if s.config.Console && s.console != nil {
		s.writers = append(s.writers, s.console)
	}
	return nil
}

// rotateIfNeeded rotates on size or age. Caller holds mu.
func (s *sink) rotateIfNeeded() error {
	if s.file == nil {
		return nil
	}

	info, err := s.file.Stat()
	if err != nil {
		return err
	}

	tooBig := s.config.MaxSize > 0 && info.Size() >= s.config.MaxSize
	tooOld := s.config.MaxAge > 0 && time.Since(info.ModTime()) > time.Duration(s.config.MaxAge)*24*time.Hour
	if !tooBig && !tooOld {
		return nil
	}
	return s.rotate()
}

// rotate shifts mtc.log -> mtc.log.1 -> mtc.log.2 ... Caller holds mu.
func (s *sink) rotate() error {
	s.file.Close()
	s.file = nil

	for i := s.config.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", s.config.FilePath, i)
		newPath := fmt.Sprintf("%s.%d", s.config.FilePath, i+1)
		_ = os.Rename(oldPath, newPath)
	}

	if _, err := os.Stat(s.config.FilePath); err == nil {
		if err := os.Rename(s.config.FilePath, s.config.FilePath+".1"); err != nil {
			return err
		}
	}

	return s.open()
}

func (l *Logger) log(level Level, msg string, fields []Field) {
	s := l.sink
	if level < s.config.Level {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.rotateIfNeeded()

	_, file, line, ok := runtime.Caller(2)
	caller := "???"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s: %s", time.Now().Format("2006-01-02 15:04:05.000"), level, caller, msg)

	if len(l.fields)+len(fields) > 0 {
		b.WriteString(" |")
		for _, f := range l.fields {
			fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
		}
		for _, f := range fields {
			fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
		}
	}
	b.WriteByte('\n')

	for _, w := range s.writers {
		_, _ = io.WriteString(w, b.String())
	}
}

// WithFields returns a logger that adds fields to every entry
func (l *Logger) WithFields(fields ...Field) *Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{sink: l.sink, fields: merged}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(DEBUG, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(INFO, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(WARN, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(ERROR, msg, fields) }

// Close closes the log file
func (l *Logger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.file != nil {
		err := l.sink.file.Close()
		l.sink.file = nil
		return err
	}
	return nil
}

var discard = NewWriter(io.Discard, ERROR)

// std is the global logger, or a discarding one before Init
func std() *Logger {
	if globalLogger != nil {
		return globalLogger
	}
	return discard
}

func Debug(msg string, fields ...Field) { std().log(DEBUG, msg, fields) }
func Info(msg string, fields ...Field)  { std().log(INFO, msg, fields) }
func Warn(msg string, fields ...Field)  { std().log(WARN, msg, fields) }
func Error(msg string, fields ...Field) { std().log(ERROR, msg, fields) }

// WithFields returns a child of the global logger, or a discarding logger
// when none is initialized
func WithFields(fields ...Field) *Logger {
	return std().WithFields(fields...)
}

// Close closes the global logger
func Close() error {
	if globalLogger != nil {
		return globalLogger.Close()
	}
	return nil
}
