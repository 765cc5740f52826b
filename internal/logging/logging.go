// README: Zap logger construction shared by the API server and the CLI.
package logging

import (
	"go.uber.org/zap"
)

// New builds the process logger. Production config (JSON, info level) for
// deployed environments, development config (console, debug level) otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
