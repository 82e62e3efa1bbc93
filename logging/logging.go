package logging

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logger zerolog.Logger
	once   sync.Once
	level  = zerolog.DebugLevel
)

// SetLevel overrides the default log level. It must be called before the
// first Get() in the process; once the singleton is built it is immutable,
// matching the facade's single-assignment publication rule.
func SetLevel(l zerolog.Level) {
	level = l
}

// Get returns the process-wide logger, building it on first use. Every
// package in this controller logs through this singleton rather than
// fmt.Println, so a switch session, the topology viewer, and the planner
// all interleave into one stream with consistent fields.
func Get() zerolog.Logger {
	once.Do(func() {
		if os.Getenv("NO_DEBUG") != "" {
			level = zerolog.InfoLevel
		}

		console := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}

		logger = zerolog.New(console).Level(level).With().Timestamp().Caller().Logger()
	})

	return logger
}

// Component returns a child logger tagged with which subsystem emitted the
// line, e.g. logging.Component("ctrl").
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}
