package observability

import (
	"fmt"

	"github.com/nabos/fishclub/internal/logger"
)

func getLogger() logger.Logger {
	return logger.Global().Module("metrics")
}

// promLogger adapts the module logger to promhttp's error log.
type promLogger struct{}

func (promLogger) Println(v ...any) {
	getLogger().Error("metrics handler error", logger.String("error", fmt.Sprint(v...)))
}
