// Package resync runs the confirm, mutate, re-fetch cycle shared by every
// console manager. Local state is never patched optimistically: a write
// either succeeds and the owner re-reads the collection, or it fails and the
// admin is alerted with state untouched.
package resync

import (
	"context"
	"log/slog"

	"github.com/utiibeauty/parlour/services/admin-console/internal/ui"
)

type Pipeline struct {
	notifier  ui.Notifier
	confirmer ui.Confirmer
	logger    *slog.Logger
}

func New(notifier ui.Notifier, confirmer ui.Confirmer, logger *slog.Logger) *Pipeline {
	return &Pipeline{notifier: notifier, confirmer: confirmer, logger: logger}
}

// Mutation describes one write.
type Mutation struct {
	// Op names the write in logs.
	Op string
	// Confirm, when set, is asked first; a declined prompt skips the write.
	Confirm string
	Mutate  func(ctx context.Context) error
	// Resync re-reads the affected collection after a successful write.
	Resync func(ctx context.Context)
	// FailurePrefix yields the alert "<prefix>: <message>".
	FailurePrefix string
	// FailureAlert replaces the prefixed alert with a fixed text.
	FailureAlert string
}

// Outcome reports what Run did.
type Outcome int

const (
	Declined Outcome = iota
	Applied
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Declined:
		return "declined"
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Run executes m. Errors are consumed here: they are logged and shown as a
// blocking alert, never returned.
func (p *Pipeline) Run(ctx context.Context, m Mutation) Outcome {
	if m.Confirm != "" && !p.confirmer.Confirm(m.Confirm) {
		return Declined
	}
	if err := m.Mutate(ctx); err != nil {
		p.logger.Error("mutation failed", "op", m.Op, "err", err)
		p.notifier.Alert(alertText(m, err))
		return Failed
	}
	if m.Resync != nil {
		m.Resync(ctx)
	}
	return Applied
}

func alertText(m Mutation, err error) string {
	if m.FailureAlert != "" {
		return m.FailureAlert
	}
	prefix := m.FailurePrefix
	if prefix == "" {
		prefix = "Failed to " + m.Op
	}
	return prefix + ": " + err.Error()
}
