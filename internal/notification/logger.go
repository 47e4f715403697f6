package notification

import "github.com/nabos/fishclub/internal/logger"

// getLogger resolves the module logger on use, after the global logger is configured.
func getLogger() logger.Logger {
	return logger.Global().Module("notification")
}
