// Package check implements the monitoring plugin result convention: a single
// "STATE - message | perfdata" line on stdout and an exit code per state.
package check

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

type State int

const (
	OK State = iota
	Warning
	Critical
	Unknown
)

func (s State) String() string {
	switch s {
	case OK:
		return "OK"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ExitCode is the process exit status for s.
func (s State) ExitCode() int {
	if s < OK || s > Unknown {
		return int(Unknown)
	}
	return int(s)
}

type Perfdata struct {
	Label string
	Value float64
	Unit  string
	Warn  *float64
	Crit  *float64
	Min   *float64
	Max   *float64
}

func (p Perfdata) String() string {
	var b strings.Builder
	b.WriteString(quoteLabel(p.Label))
	b.WriteByte('=')
	b.WriteString(formatFloat(p.Value))
	b.WriteString(p.Unit)
	for _, v := range []*float64{p.Warn, p.Crit, p.Min, p.Max} {
		b.WriteByte(';')
		if v != nil {
			b.WriteString(formatFloat(*v))
		}
	}
	return strings.TrimRight(b.String(), ";")
}

type Result struct {
	State    State
	Message  string
	Perfdata []Perfdata
}

func Newf(state State, format string, args ...any) Result {
	return Result{State: state, Message: fmt.Sprintf(format, args...)}
}

func (r Result) WithPerfdata(p ...Perfdata) Result {
	r.Perfdata = append(append([]Perfdata(nil), r.Perfdata...), p...)
	return r
}

func (r Result) String() string {
	line := r.State.String() + " - " + strings.TrimRight(r.Message, "\n")
	if len(r.Perfdata) == 0 {
		return line
	}
	perf := make([]string, 0, len(r.Perfdata))
	for _, p := range r.Perfdata {
		perf = append(perf, p.String())
	}
	return line + " | " + strings.Join(perf, " ")
}

// Reporter writes exactly one result per process, whichever of the normal
// path or the alarm gets there first.
type Reporter struct {
	w    io.Writer
	exit func(int)
	once sync.Once
}

func NewReporter(w io.Writer, exit func(int)) *Reporter {
	return &Reporter{w: w, exit: exit}
}

func (r *Reporter) Report(res Result) {
	r.once.Do(func() {
		fmt.Fprintln(r.w, res.String())
		r.exit(res.State.ExitCode())
	})
}

// StartAlarm reports a CRITICAL timeout after fire unless the returned timer
// is stopped first. The message names timeout, the limit the user asked for,
// which may be shorter than fire.
func (r *Reporter) StartAlarm(fire, timeout time.Duration) *time.Timer {
	return time.AfterFunc(fire, func() {
		r.Report(Newf(Critical, "Plugin timed out after %d seconds", int(timeout.Round(time.Second)/time.Second)))
	})
}

func Float(v float64) *float64 { return &v }

func quoteLabel(l string) string {
	if strings.ContainsAny(l, " '=") {
		return "'" + strings.ReplaceAll(l, "'", "''") + "'"
	}
	return l
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
