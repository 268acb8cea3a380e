package main

import (
	"go.uber.org/fx"

	"github.com/stocktide/stocktide/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
