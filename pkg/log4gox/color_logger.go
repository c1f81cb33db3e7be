package log4gox

import (
	"fmt"
	"io"
	"os"

	l4g "github.com/alecthomas/log4go"
)

var stdout io.Writer = os.Stdout

// ansi foreground per l4g level: FNST FINE DEBG TRAC INFO WARN EROR CRIT
var (
	levelColor   = [...]int{30, 30, 32, 37, 37, 33, 31, 34}
	levelStrings = [...]string{"FNST", "FINE", "DEBG", "TRAC", "INFO", "WARN", "EROR", "CRIT"}
)

const (
	colorSymbol = 0x1B
	timeLayout  = "01/02/06 15:04:05"
)

// ConsoleLogWriter colored console writer
type ConsoleLogWriter chan *l4g.LogRecord

// NewColorConsoleLogWriter creates a ConsoleLogWriter printing to stdout
func NewColorConsoleLogWriter() ConsoleLogWriter {
	records := make(ConsoleLogWriter, l4g.LogBufferLength)
	go records.run(stdout)
	return records
}

func (w ConsoleLogWriter) run(out io.Writer) {
	var ts stamp
	for rec := range w {
		fmt.Fprintf(out, "%c[%dm[%s] [%s] (%s) %s\n%c[0m",
			colorSymbol,
			levelColor[rec.Level],
			ts.format(rec),
			levelStrings[rec.Level],
			rec.Source,
			rec.Message,
			colorSymbol)
	}
}

// LogWrite blocks if the buffer is full
func (w ConsoleLogWriter) LogWrite(rec *l4g.LogRecord) {
	w <- rec
}

// Close must be the last call on the writer
func (w ConsoleLogWriter) Close() {
	close(w)
}

// stamp caches the formatted second
type stamp struct {
	str string
	at  int64
}

func (s *stamp) format(rec *l4g.LogRecord) string {
	if at := rec.Created.Unix(); at != s.at || s.str == "" {
		s.str, s.at = rec.Created.Format(timeLayout), at
	}
	return s.str
}
