package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/crytic/manganis/logging/colors"
	"github.com/rs/zerolog"
)

// GlobalLogger is the root Logger of the process. It is disabled until the CLI configures it, and every package derives
// its own sub-logger from it.
var GlobalLogger *Logger

// Logger logs events to the console in a human-readable form and, optionally, to any number of additional writers in
// either structured or unstructured form. Sub-loggers share their parent's outputs and level, so configuring the
// global logger after packages derived their sub-loggers still applies to them.
type Logger struct {
	// sink holds the outputs and level shared with every logger derived from the same root.
	sink *sink

	// context holds the key-value pairs this logger tags its events with.
	context [][2]string

	// mu guards the cached zerolog loggers below.
	mu sync.Mutex

	// generation is the sink generation the cached loggers were built for.
	generation uint64

	// multiLogger writes to every registered writer.
	multiLogger zerolog.Logger

	// consoleLogger writes colorized, unstructured output to the console.
	consoleLogger zerolog.Logger
}

// sink is the configuration shared by a logger and its sub-loggers.
type sink struct {
	mu         sync.RWMutex
	level      zerolog.Level
	writers    []io.Writer
	console    io.Writer
	generation uint64
}

// LogFormat describes what format to log in
type LogFormat string

const (
	// STRUCTURED describes that logging should be done in structured JSON format
	STRUCTURED LogFormat = "structured"
	// UNSTRUCTURED describes that logging should be done in an unstructured format
	UNSTRUCTURED LogFormat = "unstructured"
)

// StructuredLogInfo describes a key-value mapping that can be used to log structured data
type StructuredLogInfo map[string]any

// NewLogger creates a Logger with the provided level. Console output goes to stderr so that command output written to
// stdout stays machine-readable.
func NewLogger(level zerolog.Level, consoleEnabled bool, writers ...io.Writer) *Logger {
	s := &sink{
		level:      level,
		writers:    writers,
		generation: 1,
	}
	if consoleEnabled {
		s.console = os.Stderr
	}
	return &Logger{sink: s}
}

// NewSubLogger creates a Logger that shares this logger's outputs and tags every event with the key-value pair.
// Packages use it so that logs can be grepped by component.
func (l *Logger) NewSubLogger(key string, value string) *Logger {
	context := make([][2]string, 0, len(l.context)+1)
	context = append(context, l.context...)
	context = append(context, [2]string{key, value})
	return &Logger{sink: l.sink, context: context}
}

// update applies a change to the shared sink and invalidates every cached logger.
func (l *Logger) update(change func(s *sink)) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	change(l.sink)
	l.sink.generation++
}

// loggers returns the zerolog loggers for the current sink configuration, rebuilding them if the sink changed.
func (l *Logger) loggers() (zerolog.Logger, zerolog.Logger, zerolog.Level) {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.generation != l.sink.generation {
		l.rebuild()
		l.generation = l.sink.generation
	}
	return l.consoleLogger, l.multiLogger, l.sink.level
}

// rebuild recreates the zerolog loggers from the sink and the context. Callers hold both locks.
func (l *Logger) rebuild() {
	// Disabled loggers are still real loggers so callers never dereference nil
	l.multiLogger = zerolog.New(io.Discard).Level(zerolog.Disabled)
	l.consoleLogger = zerolog.New(io.Discard).Level(zerolog.Disabled)

	if len(l.sink.writers) > 0 {
		ctx := zerolog.New(zerolog.MultiLevelWriter(l.sink.writers...)).Level(l.sink.level).With().Timestamp()
		for _, kv := range l.context {
			ctx = ctx.Str(kv[0], kv[1])
		}
		l.multiLogger = ctx.Logger()
	}

	if l.sink.console != nil {
		consoleWriter := setupDefaultFormatting(zerolog.ConsoleWriter{Out: l.sink.console}, l.sink.level)
		ctx := zerolog.New(consoleWriter).Level(l.sink.level).With()
		for _, kv := range l.context {
			ctx = ctx.Str(kv[0], kv[1])
		}
		l.consoleLogger = ctx.Logger()
	}
}

// EnableConsole routes human-readable output to the given writer. A nil writer disables console output.
func (l *Logger) EnableConsole(w io.Writer) {
	l.update(func(s *sink) {
		s.console = w
	})
}

// AddWriter adds a writer to the set of outputs. Adding the same writer twice is a no-op.
func (l *Logger) AddWriter(writer io.Writer, format LogFormat) {
	l.update(func(s *sink) {
		for _, w := range s.writers {
			if writer == w {
				return
			}
		}

		// Unstructured output to a writer never carries ANSI codes
		if format == UNSTRUCTURED {
			writer = &unstructuredWriter{ConsoleWriter: zerolog.ConsoleWriter{Out: writer, NoColor: true}, target: writer}
		}
		s.writers = append(s.writers, writer)
	})
}

// RemoveWriter removes a writer from the set of outputs. If the writer does not exist, this function is a no-op.
func (l *Logger) RemoveWriter(writer io.Writer) {
	l.update(func(s *sink) {
		for i, w := range s.writers {
			if w == writer {
				s.writers = append(s.writers[:i:i], s.writers[i+1:]...)
				return
			}
			if u, ok := w.(*unstructuredWriter); ok && u.target == writer {
				s.writers = append(s.writers[:i:i], s.writers[i+1:]...)
				return
			}
		}
	})
}

// Writers returns the number of additional writers this logger outputs to.
func (l *Logger) Writers() int {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()
	return len(l.sink.writers)
}

// Level will get the log level of the Logger
func (l *Logger) Level() zerolog.Level {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()
	return l.sink.level
}

// SetLevel will update the log level of the Logger and every logger sharing its outputs
func (l *Logger) SetLevel(level zerolog.Level) {
	l.update(func(s *sink) {
		s.level = level
	})
}

// unstructuredWriter remembers the writer it formats for, so that it can be removed by that writer.
type unstructuredWriter struct {
	zerolog.ConsoleWriter
	target io.Writer
}

// Trace logs a trace event
func (l *Logger) Trace(args ...any) {
	console, multi, level := l.loggers()
	l.emit(console.Trace(), multi.Trace(), level, false, args...)
}

// Debug logs a debug event
func (l *Logger) Debug(args ...any) {
	console, multi, level := l.loggers()
	l.emit(console.Debug(), multi.Debug(), level, false, args...)
}

// Info logs an info event
func (l *Logger) Info(args ...any) {
	console, multi, level := l.loggers()
	l.emit(console.Info(), multi.Info(), level, false, args...)
}

// Warn logs a warning event
func (l *Logger) Warn(args ...any) {
	console, multi, level := l.loggers()
	l.emit(console.Warn(), multi.Warn(), level, false, args...)
}

// Error logs an error event
func (l *Logger) Error(args ...any) {
	console, multi, level := l.loggers()
	l.emit(console.Error(), multi.Error(), level, false, args...)
}

// Panic logs a panic event and then panics
func (l *Logger) Panic(args ...any) {
	console, multi, level := l.loggers()
	l.emit(console.Panic(), multi.Panic(), level, true, args...)
}

// emit chains the error and structured info found in args to both events and sends them. Stack traces are attached
// when the logger runs at debug level or below, or when forceStack is set.
func (l *Logger) emit(consoleLog *zerolog.Event, multiLog *zerolog.Event, level zerolog.Level, forceStack bool, args ...any) {
	consoleMsg, multiMsg, err, info := buildMsgs(args...)

	// Err tolerates a nil error
	consoleLog.Err(err)
	multiLog.Err(err)
	if forceStack || level <= zerolog.DebugLevel {
		consoleLog.Stack()
		multiLog.Stack()
	}

	if info != nil {
		consoleLog.Any("info", info)
		multiLog.Any("info", info)
	}

	// The multi logger is sent last so that a panic still reaches every writer
	defer multiLog.Msg(multiMsg)
	consoleLog.Msg(consoleMsg)
}

// buildMsgs takes a variadic list of arguments and returns a colorized message for the console, a plain message for
// the other writers and, optionally, an error and a StructuredLogInfo. A colors.ColorFunc argument changes the color
// of every argument that follows it.
func buildMsgs(args ...any) (string, string, error, StructuredLogInfo) {
	if len(args) == 0 {
		return "", "", nil, nil
	}

	colorCtx := colors.Reset
	consoleOutput := make([]string, 0, len(args))
	fileOutput := make([]string, 0, len(args))
	var info StructuredLogInfo
	var err error

	for _, arg := range args {
		switch t := arg.(type) {
		case colors.ColorFunc:
			colorCtx = t
		case StructuredLogInfo:
			// Only one structured log info is kept per message
			info = t
		case error:
			// Only one error is kept per message
			err = t
		default:
			consoleOutput = append(consoleOutput, colorCtx(t))
			fileOutput = append(fileOutput, fmt.Sprintf("%v", t))
		}
	}

	return strings.Join(consoleOutput, ""), strings.Join(fileOutput, ""), err, info
}

// setupDefaultFormatting applies the console format: no timestamp, a colored level marker and, above debug level, no
// module field.
func setupDefaultFormatting(writer zerolog.ConsoleWriter, level zerolog.Level) zerolog.ConsoleWriter {
	writer.FormatTimestamp = func(i interface{}) string {
		return ""
	}

	writer.FormatLevel = func(i any) string {
		s, _ := i.(string)
		parsed, err := zerolog.ParseLevel(s)
		if err != nil {
			return s
		}

		switch parsed {
		case zerolog.TraceLevel:
			return colors.CyanBold(zerolog.LevelTraceValue)
		case zerolog.DebugLevel:
			return colors.BlueBold(zerolog.LevelDebugValue)
		case zerolog.InfoLevel:
			return colors.GreenBold(colors.LEFT_ARROW)
		case zerolog.WarnLevel:
			return colors.YellowBold(zerolog.LevelWarnValue)
		case zerolog.ErrorLevel:
			return colors.RedBold(zerolog.LevelErrorValue)
		case zerolog.FatalLevel:
			return colors.RedBold(zerolog.LevelFatalValue)
		case zerolog.PanicLevel:
			return colors.RedBold(zerolog.LevelPanicValue)
		default:
			return s
		}
	}

	if level > zerolog.DebugLevel {
		writer.FieldsExclude = []string{"module"}
	}

	return writer
}
