package order

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(NewMaterializer),
	fx.Provide(NewService),
)
