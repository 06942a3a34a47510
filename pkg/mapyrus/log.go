package mapyrus

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset    = "\x1b[0;0m"
	ansiBlue     = "\x1b[34;22m"
	ansiGreen    = "\x1b[32;22m"
	ansiRed      = "\x1b[31;22m"
	ansiBlueBold = "\x1b[34;1m"
	ansiRedBold  = "\x1b[31;1m"
)

// color escapes are only emitted when the stream is a terminal
var (
	stdoutColor = isatty.IsTerminal(os.Stdout.Fd())
	stderrColor = isatty.IsTerminal(os.Stderr.Fd())
)

func paint(enabled bool, color, s string) string {
	if !enabled {
		return s
	}
	return color + s + ansiReset
}

// LogDebug prints a debug message to stdout.
func LogDebug(args ...string) {
	fmt.Println(paint(stdoutColor, ansiBlueBold, "debug: ") +
		paint(stdoutColor, ansiBlue, strings.Join(args, " ")))
}

// LogDebugf prints a formatted debug message to stdout.
func LogDebugf(s string, args ...interface{}) {
	LogDebug(fmt.Sprintf(s, args...))
}

// LogInteractive prints an evaluation result in an interactive session.
func LogInteractive(args ...string) {
	fmt.Println(paint(stdoutColor, ansiGreen, strings.Join(args, " ")))
}

// LogSafeErr reports an error to stderr without exiting.
func LogSafeErr(reason int, args ...string) {
	errStr := "error"
	switch reason {
	case ErrSyntax:
		errStr = "syntax error"
	case ErrEval:
		errStr = "evaluation error"
	case ErrResource:
		errStr = "resource error"
	case ErrSystem:
		errStr = "system error"
	case ErrAssert:
		errStr = "invariant violation"
	}
	fmt.Fprintln(os.Stderr, paint(stderrColor, ansiRedBold, errStr+": ")+
		paint(stderrColor, ansiRed, strings.Join(args, " ")))
}

// LogErr reports an error to stderr and exits with the reason code.
func LogErr(reason int, args ...string) {
	LogSafeErr(reason, args...)
	os.Exit(reason)
}

// LogErrf reports a formatted error to stderr and exits.
func LogErrf(reason int, s string, args ...interface{}) {
	LogErr(reason, fmt.Sprintf(s, args...))
}
