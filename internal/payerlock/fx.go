package payerlock

import "go.uber.org/fx"

var Module = fx.Module("payer.lock",
	fx.Provide(New),
)
