package service

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/dosekeep/internal/logger"
	"github.com/julianstephens/dosekeep/internal/storage"
)

type Op string

const (
	OpBootstrap        Op = "bootstrap"
	OpEnsureLogs       Op = "ensure_logs"
	OpRegenerate       Op = "regenerate"
	OpMove             Op = "move"
	OpDedupe           Op = "dedupe"
	OpSetTaken         Op = "set_taken"
	OpSkipDay          Op = "skip_day"
	OpAddMedication    Op = "add_medication"
	OpUpdateMedication Op = "update_medication"
	OpActivate         Op = "activate"
	OpDeactivate       Op = "deactivate"
	OpDelete           Op = "delete"
	OpSettings         Op = "settings"
	OpProjection       Op = "projection"
)

// Event describes one committed changeset.
type Event struct {
	Op           Op
	MedicationID string // empty for operations spanning every medication
	Changeset    storage.Changeset
	At           time.Time
}

// Hook observes committed changes. Hooks run after the commit, outside the
// service locks, and cannot fail the operation.
type Hook func(ctx context.Context, ev Event)

func (s *Service) fire(ctx context.Context, ev Event) {
	for _, h := range s.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Post-commit hook panicked", "op", ev.Op, "panic", fmt.Sprint(r))
				}
			}()
			h(ctx, ev)
		}()
	}
}
