package mcpsrv

import (
	"github.com/purl-logs/purl-explorer/internal/config"
	"github.com/purl-logs/purl-explorer/internal/engine"
	"github.com/purl-logs/purl-explorer/pkg/client"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same engine as builtin tools.
type Deps struct {
	Client *client.Client
	Config *config.Config
	Engine *engine.Engine
}
