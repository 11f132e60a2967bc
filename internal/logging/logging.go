// Package logging builds the slog logger used across pipinstall.
//
// Records go to the console through charmbracelet/log and, once a log
// directory is known, to a plain log file as well. The file sink is
// attached after the virtual environment exists, since the log lives
// inside it.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultLogName is the log file written inside the environment.
const DefaultLogName = "pipInstall2.log"

// Options configure a Logger.
type Options struct {
	// Console receives formatted records. Defaults to os.Stderr.
	Console io.Writer

	// Prefix is printed before every console record.
	Prefix string

	// Verbose enables debug records.
	Verbose bool

	// Timestamps adds a timestamp to every record.
	Timestamps bool
}

// Logger is an slog.Logger whose level and sinks can change while a run
// is in progress.
type Logger struct {
	*slog.Logger

	mu      sync.Mutex
	opts    log.Options
	handler *log.Logger
	out     *switchWriter
	file    *os.File
	path    string
}

// New returns a console-only logger.
func New(opts Options) *Logger {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	out := &switchWriter{w: console, console: console}
	hopts := log.Options{
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.Timestamps,
		Level:           log.InfoLevel,
	}
	h := log.NewWithOptions(out, hopts)
	l := &Logger{Logger: slog.New(h), opts: hopts, handler: h, out: out}
	l.SetVerbose(opts.Verbose)
	return l
}

// Discard returns a logger that writes nowhere.
func Discard() *Logger {
	return New(Options{Console: io.Discard})
}

// SetVerbose switches debug records on or off.
func (l *Logger) SetVerbose(verbose bool) {
	if verbose {
		l.handler.SetLevel(log.DebugLevel)
		return
	}
	l.handler.SetLevel(log.InfoLevel)
}

// Verbose reports whether debug records are enabled.
func (l *Logger) Verbose() bool {
	return l.handler.GetLevel() <= log.DebugLevel
}

// AttachFile tees records into dir/name, truncating any previous log. If
// the file cannot be created in dir, the current working directory is
// tried. The returned path is the file actually opened.
func (l *Logger) AttachFile(dir, name string) (string, error) {
	if name == "" {
		name = DefaultLogName
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.path, fmt.Errorf("log file already attached: %s", l.path)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			return "", fmt.Errorf("create log file %s: %w", path, err)
		}
		fallback := filepath.Join(cwd, name)
		f, err = os.Create(fallback)
		if err != nil {
			return "", fmt.Errorf("create log file %s: %w", fallback, err)
		}
		path = fallback
	}

	l.file = f
	l.path = path
	l.out.set(io.MultiWriter(l.out.console, f))
	return path, nil
}

// File returns a logger that writes only to the attached log file, at
// Info level. Records are dropped when no file is attached.
func (l *Logger) File() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	var w io.Writer = io.Discard
	if l.file != nil {
		w = l.file
	}
	return slog.New(log.NewWithOptions(w, l.opts))
}

// Path returns the attached log file, or "" when there is none.
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Close detaches and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	l.out.set(l.out.console)
	err := l.file.Close()
	l.file = nil
	return err
}

// switchWriter lets the handler's destination change after construction.
type switchWriter struct {
	mu      sync.Mutex
	w       io.Writer
	console io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}
