package log4gox

import (
	"fmt"
	"io"

	l4g "github.com/alecthomas/log4go"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateConfig size based rotation for file logs
type RotateConfig struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// RotateFileLogWriter plain text writer backed by lumberjack
type RotateFileLogWriter struct {
	records chan *l4g.LogRecord
	done    chan struct{}
	out     io.WriteCloser
}

// NewRotateFileLogWriter starts a writer for cfg.Filename
func NewRotateFileLogWriter(cfg RotateConfig) *RotateFileLogWriter {
	return newRotateWriter(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})
}

func newRotateWriter(out io.WriteCloser) *RotateFileLogWriter {
	w := &RotateFileLogWriter{
		records: make(chan *l4g.LogRecord, l4g.LogBufferLength),
		done:    make(chan struct{}),
		out:     out,
	}
	go w.run()
	return w
}

func (w *RotateFileLogWriter) run() {
	defer close(w.done)
	var ts stamp
	for rec := range w.records {
		fmt.Fprintf(w.out, "[%s] [%s] (%s) %s\n",
			ts.format(rec),
			levelStrings[rec.Level],
			rec.Source,
			rec.Message)
	}
}

func (w *RotateFileLogWriter) LogWrite(rec *l4g.LogRecord) {
	w.records <- rec
}

// Close flushes pending records and closes the file
func (w *RotateFileLogWriter) Close() {
	close(w.records)
	<-w.done
	w.out.Close()
}

// Setup replaces the global l4g writers: colored console at level, plus a
// rotating file when cfg.Filename is set
func Setup(level l4g.Level, cfg RotateConfig) {
	l4g.Close()
	l4g.AddFilter("stdout", level, NewColorConsoleLogWriter())
	if cfg.Filename != "" {
		l4g.AddFilter("file", level, NewRotateFileLogWriter(cfg))
	}
}
