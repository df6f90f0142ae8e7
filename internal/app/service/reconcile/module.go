package reconcile

import (
	"go.uber.org/fx"

	"github.com/fatflowers/checkout/internal/platform/cache"
	"github.com/fatflowers/checkout/internal/platform/events"
	"github.com/fatflowers/checkout/internal/platform/sep"
)

var Module = fx.Options(
	fx.Provide(
		New,
		NewReverifier,
		func(c *sep.Client) Verifier { return c },
		func(c *cache.Cache) Locker { return c },
		func(c *cache.Cache) StatusCache { return c },
		func(p *events.Producer) Publisher { return p },
	),
	fx.Invoke(registerReverifier),
)
