package utils

import (
	"log"

	"go.uber.org/zap"
)

// Logger defaults to a nop so library code and tests can log before
// InitLogger runs in main.
var Logger = zap.NewNop()

func InitLogger() {
	var err error

	Logger, err = zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger with %v", err)
	}
}
