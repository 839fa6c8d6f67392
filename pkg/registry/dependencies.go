package registry

import (
	"log/slog"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/pkg/events"
	"buyerdispatch/pkg/workflow"
)

// Dependencies contains the shared dependencies for all modules.
type Dependencies struct {
	DB                  *sqlx.DB
	EventBus            *events.Bus
	StateMachineFactory *workflow.StateMachineFactory
	Logger              *slog.Logger
}
