// SPDX-License-Identifier: MPL-2.0

// Package logging builds the charmbracelet loggers shared by the CLI, the
// action surfaces and the adapter modules.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/omniauto/omniauto/internal/config"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrNoLogFile is returned when rotation settings are given without a file.
var ErrNoLogFile = errors.New("log rotation requires a file path")

type (
	// Options configures New.
	Options struct {
		Level  config.LogLevel
		Format config.LogFormat
		Prefix string
		// File switches output to a rotated log file.
		File       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
		// Console receives output when File is empty, and also at debug level
		// when File is set. Defaults to os.Stderr.
		Console io.Writer
	}

	nopCloser struct{}
)

func (nopCloser) Close() error { return nil }

// FromConfig maps the log section of the configuration onto Options.
func FromConfig(c config.LogConfig) Options {
	return Options{
		Level:      c.Level,
		Format:     c.Format,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}

// New builds a logger. The returned closer releases the log file, if any.
func New(opts Options) (*log.Logger, io.Closer, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		lvl, err := log.ParseLevel(string(opts.Level))
		if err != nil {
			return nil, nil, fmt.Errorf("parse log level: %w", err)
		}
		level = lvl
	}

	formatter, err := formatterFor(opts.Format)
	if err != nil {
		return nil, nil, err
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var (
		out    io.Writer = console
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		rotated, err := rotatingFile(opts)
		if err != nil {
			return nil, nil, err
		}
		out, closer = rotated, rotated
		if level == log.DebugLevel {
			out = io.MultiWriter(console, rotated)
		}
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       formatter,
	})
	return logger, closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

func formatterFor(f config.LogFormat) (log.Formatter, error) {
	switch f {
	case "", config.LogFormatText:
		return log.TextFormatter, nil
	case config.LogFormatJSON:
		return log.JSONFormatter, nil
	case config.LogFormatLogfmt:
		return log.LogfmtFormatter, nil
	default:
		return 0, &config.InvalidLogFormatError{Value: f}
	}
}

func rotatingFile(opts Options) (*lumberjack.Logger, error) {
	if opts.File == "" {
		return nil, ErrNoLogFile
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}, nil
}
