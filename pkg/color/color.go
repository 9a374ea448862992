// Package color provides terminal color output for the DeploySeal CLI.
// It respects the NO_COLOR environment variable (https://no-color.org/).
package color

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

var state struct {
	enabled  bool
	once     sync.Once
	disabled bool
}

// Init initializes the color system based on environment and flags.
func Init(noColorFlag bool) {
	state.once.Do(func() {
		if _, exists := os.LookupEnv("NO_COLOR"); exists {
			state.disabled = true
		}
		if term := os.Getenv("TERM"); term == "dumb" {
			state.disabled = true
		}
		if noColorFlag {
			state.disabled = true
		}
		state.enabled = !state.disabled
	})
}

// Enabled returns true if color output is enabled.
func Enabled() bool {
	Init(false)
	return state.enabled
}

// Disable turns off color output.
func Disable() {
	state.disabled = true
	state.enabled = false
}

// ANSI color codes
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	DimCode = "\033[2m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m"
)

type colorFunc func(string) string

func makeColorFunc(codes ...string) colorFunc {
	return func(s string) string {
		if !Enabled() {
			return s
		}
		return strings.Join(codes, "") + s + Reset
	}
}

var (
	Redf    = makeColorFunc(Red)
	Greenf  = makeColorFunc(Green)
	Yellowf = makeColorFunc(Yellow)
	Cyanf   = makeColorFunc(Cyan)
	Grayf   = makeColorFunc(Gray)
	Boldf   = makeColorFunc(Bold)
	Dimf    = makeColorFunc(DimCode)
)

// Success formats a success message in green.
func Success(s string) string {
	return Greenf(s)
}

// Error formats an error message in red.
func Error(s string) string {
	return Redf(s)
}

// Warning formats a warning message in yellow.
func Warning(s string) string {
	return Yellowf(s)
}

// Warningf formats a warning message with printf-style arguments.
func Warningf(format string, args ...any) string {
	return Yellowf(fmt.Sprintf(format, args...))
}

// Hash formats a commit hash or certificate ID in cyan for visibility.
func Hash(s string) string {
	return Cyanf(s)
}

// Header formats a header in bold.
func Header(s string) string {
	return Boldf(s)
}

// Dim formats dimmed text for secondary information.
func Dim(s string) string {
	return Dimf(s)
}
