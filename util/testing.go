package util

import (
	"flag"
	"os"
	"time"

	"github.com/h2non/gock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func IsTest() bool {
	return flag.Lookup("test.v") != nil
}

func ConfigureTestLogger() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.TimeFormat = "04:05.000ms"
	})).With().Timestamp().Logger()
}

// ResetGock flushes any mocks left over by a previous test so unmatched
// pending mocks from one case cannot satisfy requests of the next.
func ResetGock() {
	gock.Off()
	gock.Clean()
	gock.CleanUnmatchedRequest()
}

// WaitForSettle gives background goroutines (losing race participants,
// late gateway responses) a moment to drain before assertions run.
func WaitForSettle(d time.Duration) {
	if d <= 0 {
		d = 50 * time.Millisecond
	}
	time.Sleep(d)
}
