// A simple leveled logging module.
//
// All it does basically is wrap Go's logger with nice multi-level logging calls, and
// allows you to set the logging level of your app in runtime.
//
// Logging is done just like calling fmt.Sprintf:
//
//	logging.Info("Staging %s for %s", payload, arch)
//
// example output:
//
//	2024/03/07 01:20:26 INFO @ stager.go:52: Selected archive entry Linux-x86_64-ffmpeg.tar.gz
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"time"
)

const (
	DEBUG   = 1
	INFO    = 2
	WARNING = 4
	WARN    = 4
	ERROR   = 8
	QUIET   = ERROR               // setting for errors only
	NORMAL  = INFO | WARN | ERROR // default setting - all besides debug
	ALL     = 255
	NOTHING = 0
)

var level = NORMAL

var output io.Writer = os.Stderr

// SetLevel sets the logging level as a bit mask of active levels.
//
// e.g. for INFO and ERROR use:
//
//	SetLevel(logging.INFO | logging.ERROR)
func SetLevel(l int) {
	level = l
}

// SetOutput redirects log lines, mainly so tests can capture them
func SetOutput(w io.Writer) {
	output = w
}

func writeMessage(levelName string, format string, args ...interface{}) {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "<unknown>", 0
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(output, "%s %s @ %s:%d: %s\n",
		time.Now().Format("2006/01/02 15:04:05"), levelName, path.Base(file), line, msg)
}

// Debug logs a message at the DEBUG level
func Debug(format string, args ...interface{}) {
	if level&DEBUG != 0 {
		writeMessage("DEBUG", format, args...)
	}
}

// Info logs a message at the INFO level
func Info(format string, args ...interface{}) {
	if level&INFO != 0 {
		writeMessage("INFO", format, args...)
	}
}

// Warning logs a message at the WARNING level
func Warning(format string, args ...interface{}) {
	if level&WARN != 0 {
		writeMessage("WARNING", format, args...)
	}
}

// Error logs a message at the ERROR level
func Error(format string, args ...interface{}) {
	if level&ERROR != 0 {
		writeMessage("ERROR", format, args...)
	}
}
