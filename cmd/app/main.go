package main

import (
	"github.com/vibevortex/core/internal/app"
	"github.com/vibevortex/core/internal/config"
)

func main() {
	app.Go(config.Load())
}
