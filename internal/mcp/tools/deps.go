package tools

import (
	"github.com/purl-logs/purl-explorer/internal/config"
	"github.com/purl-logs/purl-explorer/internal/engine"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Engine *engine.Engine
	Config *config.Config
}
