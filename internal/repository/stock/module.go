package stock

import "go.uber.org/fx"

// Module provides the stock ledger to Fx.
var Module = fx.Provide(NewRepository)
