// Package logadapter bridges this module's minimal fiber.Logger interface
// to github.com/joeycumines/logiface, a structured-logging facade.
// Applications that already standardize on a logiface backend (zerolog,
// stumpy, logrus) can pass the resulting fiber.Logger straight to
// fiber.WithLogger / fiber.SetStructuredLogger.
package logadapter

import (
	"time"

	"github.com/joeycumines/fiberrt"
	"github.com/joeycumines/logiface"
)

// New wraps an existing *logiface.Logger[logiface.Event] as a fiber.Logger.
func New(l *logiface.Logger[logiface.Event]) fiber.Logger {
	return &adapter{l: l}
}

type adapter struct {
	l *logiface.Logger[logiface.Event]
}

func toLogifaceLevel(level fiber.Level) logiface.Level {
	switch level {
	case fiber.LevelDebug:
		return logiface.LevelDebug
	case fiber.LevelInfo:
		return logiface.LevelInformational
	case fiber.LevelWarn:
		return logiface.LevelWarning
	case fiber.LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

func (a *adapter) Enabled(level fiber.Level) bool {
	return a.l.Level() >= toLogifaceLevel(level) && toLogifaceLevel(level) != logiface.LevelDisabled
}

func (a *adapter) Log(level fiber.Level, msg string, fields ...fiber.Field) {
	b := a.l.Build(toLogifaceLevel(level))
	if b == nil {
		return
	}
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			b = b.Str(f.Key, v)
		case int:
			b = b.Int(f.Key, v)
		case int64:
			b = b.Int64(f.Key, v)
		case bool:
			b = b.Bool(f.Key, v)
		case time.Duration:
			b = b.Dur(f.Key, v)
		case time.Time:
			b = b.Time(f.Key, v)
		case error:
			b = b.Err(v)
		default:
			b = b.Interface(f.Key, v)
		}
	}
	b.Log(msg)
}
