package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5/middleware"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	jsonOut  io.Writer
	logFile  *os.File
	minLevel LogLevel
}

// NewLogger writes colored lines to stdout and JSON lines to logs/ordering-<date>.log.
func NewLogger() *Logger {
	return NewLoggerInDir("logs")
}

func NewLoggerInDir(dir string) *Logger {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatal("Failed to create logs directory:", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	logFileName := filepath.Join(dir, fmt.Sprintf("ordering-%s.log", timestamp))

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatal("Failed to create log file:", err)
	}

	l := &Logger{
		out:     os.Stdout,
		jsonOut: logFile,
		logFile: logFile,
	}
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		l.minLevel = DEBUG
	} else {
		l.minLevel = INFO
	}

	l.Info("LOGGER", "Logging system initialized")
	l.Info("LOGGER", fmt.Sprintf("Log file: %s", logFileName))

	return l
}

// NewWithWriter logs colored lines to out only. Used by tests and tools.
func NewWithWriter(out io.Writer) *Logger {
	return &Logger{out: out, minLevel: DEBUG}
}

// NewTestLogger discards everything.
func NewTestLogger() *Logger {
	return NewWithWriter(io.Discard)
}

func (l *Logger) log(level LogLevel, category, message string) {
	if level < l.minLevel {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     l.levelToString(level),
		Category:  strings.ToUpper(category),
		Message:   message,
		File:      file,
		Line:      line,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprint(l.out, l.formatTerminalOutput(entry))
	if l.jsonOut != nil {
		fmt.Fprintln(l.jsonOut, l.formatJSONOutput(entry))
	}
}

var levelNames = [...]string{DEBUG: "DEBUG", INFO: "INFO", WARN: "WARN", ERROR: "ERROR", FATAL: "FATAL"}

func (l *Logger) levelToString(level LogLevel) string {
	if level < DEBUG || level > FATAL {
		return "INFO"
	}
	return levelNames[level]
}

type palette struct {
	level, category *color.Color
}

var palettes = map[string]palette{
	"DEBUG": {color.New(color.FgCyan), color.New(color.FgCyan, color.Bold)},
	"INFO":  {color.New(color.FgGreen), color.New(color.FgGreen, color.Bold)},
	"WARN":  {color.New(color.FgYellow), color.New(color.FgYellow, color.Bold)},
	"ERROR": {color.New(color.FgRed, color.Bold), color.New(color.FgRed, color.Bold)},
	"FATAL": {color.New(color.FgRed, color.Bold, color.BlinkSlow), color.New(color.FgRed, color.Bold)},
}

var (
	clockColor  = color.New(color.FgBlue)
	sourceColor = color.New(color.FgMagenta)
)

// formatTerminalOutput renders "15:04:05 LEVEL [CATEGORY  ] message (file:line)".
func (l *Logger) formatTerminalOutput(entry LogEntry) string {
	p, ok := palettes[entry.Level]
	if !ok {
		p = palettes["INFO"]
	}

	var b strings.Builder
	b.WriteString(clockColor.Sprint(entry.Timestamp[11:19]))
	b.WriteByte(' ')
	b.WriteString(p.level.Sprintf("%-5s", entry.Level))
	b.WriteByte(' ')
	b.WriteString(p.category.Sprintf("[%-10s]", entry.Category))
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	if entry.File != "" && entry.Line > 0 {
		b.WriteString(sourceColor.Sprintf(" (%s:%d)", entry.File, entry.Line))
	}
	b.WriteByte('\n')
	return b.String()
}

func (l *Logger) formatJSONOutput(entry LogEntry) string {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"level":%q,"message":"unencodable log entry"}`, entry.Level)
	}
	return string(raw)
}

func (l *Logger) Debug(category, message string) {
	l.log(DEBUG, category, message)
}

func (l *Logger) Info(category, message string) {
	l.log(INFO, category, message)
}

func (l *Logger) Warn(category, message string) {
	l.log(WARN, category, message)
}

func (l *Logger) Error(category, message string) {
	l.log(ERROR, category, message)
}

func (l *Logger) Fatal(category, message string) {
	l.log(FATAL, category, message)
	os.Exit(1)
}

func (l *Logger) LogOrder(action, orderID, message string) {
	l.Info("ORDER", fmt.Sprintf("[%s] %s - %s", action, orderID, message))
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.Info("API", fmt.Sprintf("%s %s - %s (%s)", method, path, status, duration))
}

func (l *Logger) LogKafka(action, topic, message string) {
	l.Info("KAFKA", fmt.Sprintf("[%s] %s - %s", action, topic, message))
}

func (l *Logger) LogDatabase(operation, table, message string) {
	l.Info("DATABASE", fmt.Sprintf("[%s] %s - %s", operation, table, message))
}

func (l *Logger) LogSecurity(event, message string) {
	l.Warn("SECURITY", fmt.Sprintf("[%s] %s", event, message))
}

// Middleware logs one API line per request. Streaming responses are logged when they end.
func (l *Logger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		l.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", status), time.Since(start).Round(time.Millisecond).String())
	})
}

func (l *Logger) Close() {
	if l.logFile != nil {
		l.Info("LOGGER", "Closing log file")
		l.logFile.Close()
	}
}
