package host

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mindmorass/infinity-clipboard/internal/logger"
)

// StderrAlerter prints alerts in bold red to a terminal
type StderrAlerter struct {
	out io.Writer
}

// NewStderrAlerter creates an alerter writing to out (stderr if nil)
func NewStderrAlerter(out io.Writer) *StderrAlerter {
	if out == nil {
		out = os.Stderr
	}
	return &StderrAlerter{out: out}
}

// Alert implements Alerter
func (a *StderrAlerter) Alert(message string) {
	color.New(color.FgRed, color.Bold).Fprintln(a.out, message)
}

// LogAlerter records alerts in the log, for hosts without a terminal
type LogAlerter struct {
	// Notify is called after logging, e.g. to update a tray status line
	Notify func(message string)
}

// Alert implements Alerter
func (a LogAlerter) Alert(message string) {
	logger.Warn().Str("alert", message).Msg("user alert")
	if a.Notify != nil {
		a.Notify(message)
	}
}
