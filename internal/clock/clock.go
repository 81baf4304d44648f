package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies the current time. The payment service derives the daily
// limit window from it, so tests inject a FakeClock instead of reading
// time.Now directly.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func New() Clock { return systemClock{} }

var Module = fx.Module("clock", fx.Provide(New))
