// Package main is the entry point for the vintage editor.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/vintage/internal/app"
	"github.com/dshills/vintage/internal/input/register"
	"github.com/dshills/vintage/internal/term"
	"github.com/dshills/vintage/internal/view"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, logPath := parseFlags()

	logFile, err := openLog(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open log: %v\n", err)
		return 1
	}
	defer logFile.Close()
	opts.LogOutput = logFile
	opts.Clipboard = register.SystemClipboard{}
	opts.Watch = true

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil && !errors.Is(err, app.ErrClosed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}()

	if err := openFiles(application, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	screen, err := term.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize terminal: %v\n", err)
		return 1
	}
	defer screen.Shutdown()

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		screen.Shutdown()
	}()

	loop(application, screen)
	return 0
}

// loop feeds terminal keys to the application until the user quits.
// Ctrl-Q quits and Ctrl-N moves to the next buffer.
func loop(a *app.Application, screen *term.Screen) {
	var message string
	for {
		draw(a, screen, message)

		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		kev, ok := ev.(*tcell.EventKey)
		if !ok {
			continue
		}

		message = ""
		switch kev.Key() {
		case tcell.KeyCtrlQ:
			return
		case tcell.KeyCtrlN:
			if err := a.NextBuffer(); err != nil {
				message = err.Error()
			}
			continue
		}

		key, ok := term.KeyName(kev)
		if !ok {
			continue
		}
		if err := a.Feed(key); err != nil {
			message = err.Error()
			screen.Beep()
			continue
		}
		message = a.Message()
	}
}

func draw(a *app.Application, screen *term.Screen, message string) {
	f := term.Frame{Status: a.Status(), Message: message}
	if b := a.Buffers().Active(); b != nil {
		f.Text = b.View.Text()
		for _, r := range b.View.Selections() {
			f.Carets = append(f.Carets, r.B)
		}
		if p, ok := view.Primary(b.View); ok && len(f.Carets) > 0 {
			f.Carets[0] = p.B
		}
		if f.Status == "" {
			f.Status = b.Name
		}
	}
	screen.Draw(f)
}

// openFiles opens every file as a buffer, or a scratch buffer when there
// are none. Missing files open empty. The first buffer gets the focus.
func openFiles(a *app.Application, files []string) error {
	if len(files) == 0 {
		_, err := a.OpenBuffer("[scratch]", "")
		return err
	}

	var first *app.Buffer
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		b, err := a.OpenBuffer(filepath.Base(path), string(data))
		if err != nil {
			return err
		}
		if first == nil {
			first = b
		}
	}
	return a.Activate(first)
}

func openLog(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{io.Discard}, nil
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func parseFlags() (app.Options, string) {
	var opts app.Options
	var logPath string
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.StateFile, "state", "", "Path to the session state file")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&logPath, "log", "", "Write logs to this file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Vintage - modal command editing\n\n")
		fmt.Fprintf(os.Stderr, "Usage: vintage [options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  Ctrl-Q   quit\n")
		fmt.Fprintf(os.Stderr, "  Ctrl-N   next buffer\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Vintage %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	return opts, logPath
}
