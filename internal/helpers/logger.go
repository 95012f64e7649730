package helpers

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Logger is the shared application logger. Level comes from LOG_LEVEL
// (default info); output is stdout unless LOG_FILE points elsewhere.
var Logger = newLogger()

func newLogger() *log.Logger {
	l := log.New()
	l.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if level, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		l.SetLevel(level)
	} else {
		l.SetLevel(log.InfoLevel)
	}

	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		f, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			l.Warnf("cannot open log file %s, falling back to stdout: %v", logFile, err)
		} else {
			l.SetOutput(f)
		}
	}

	return l
}
