package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

// Init configures the global logger. Development gets pretty console output,
// everything else gets JSON on stdout.
func Init(environment string) {
	zerolog.TimeFieldFormat = time.RFC3339

	if environment == "development" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger().Level(zerolog.DebugLevel)
		return
	}

	log = zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

func Debug(msg string, kv ...any) { emit(log.Debug(), msg, kv...) }
func Info(msg string, kv ...any)  { emit(log.Info(), msg, kv...) }
func Warn(msg string, kv ...any)  { emit(log.Warn(), msg, kv...) }
func Error(msg string, kv ...any) { emit(log.Error(), msg, kv...) }

func Fatal(msg string, kv ...any) {
	emit(log.Fatal(), msg, kv...)
}

// emit accepts alternating key/value pairs; a trailing odd value or a bare
// error is logged under a default key so callers can never break logging.
func emit(ev *zerolog.Event, msg string, kv ...any) {
	for i := 0; i < len(kv); i++ {
		if err, ok := kv[i].(error); ok {
			ev = ev.Err(err)
			continue
		}

		key, ok := kv[i].(string)
		if !ok || i+1 >= len(kv) {
			ev = ev.Interface("value", kv[i])
			continue
		}

		ev = ev.Interface(key, kv[i+1])
		i++
	}

	ev.Msg(msg)
}
