// Package reviews moderates customer reviews and drives the public review
// page: the approved list and the submission form.
package reviews

import (
	"context"
	"log/slog"
	"sync"

	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway"
	"github.com/utiibeauty/parlour/services/admin-console/internal/resync"
)

const (
	DeletePrompt        = "Delete this review?"
	loadFailedMessage   = "Could not load reviews."
	deleteFailurePrefix = "Failed to delete review"
)

type State struct {
	Reviews []model.Review
	Loading bool
	Error   string
}

// list is a review collection read with a fixed filter.
type list struct {
	gw     gateway.Reviews
	filter model.ReviewFilter
	logger *slog.Logger

	mu      sync.Mutex
	reviews []model.Review
	loading bool
	err     string
	closed  bool
}

func (l *list) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{
		Reviews: append([]model.Review(nil), l.reviews...),
		Loading: l.loading,
		Error:   l.err,
	}
}

func (l *list) Fetch(ctx context.Context) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.loading = true
	l.mu.Unlock()

	rows, err := l.gw.ListReviews(ctx, l.filter)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.loading = false
	if err != nil {
		l.logger.Error("list reviews failed", "approved_only", l.filter.ApprovedOnly, "err", err)
		l.reviews = nil
		l.err = loadFailedMessage
		return
	}
	l.reviews = rows
	l.err = ""
}

// Close detaches the list; results of calls still in flight are dropped.
func (l *list) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// Manager is the admin view over every review, approved or not.
type Manager struct {
	list
	pipeline *resync.Pipeline
}

func NewManager(gw gateway.Reviews, pipeline *resync.Pipeline, logger *slog.Logger) *Manager {
	return &Manager{
		list:     list{gw: gw, logger: logger},
		pipeline: pipeline,
	}
}

func (m *Manager) Delete(ctx context.Context, id string) resync.Outcome {
	return m.pipeline.Run(ctx, resync.Mutation{
		Op:            gateway.OpDeleteReview,
		Confirm:       DeletePrompt,
		FailurePrefix: deleteFailurePrefix,
		Mutate: func(ctx context.Context) error {
			return m.gw.DeleteReview(ctx, id)
		},
		Resync: m.Fetch,
	})
}

// PublicList holds the approved reviews shown on the site.
type PublicList struct {
	list
}

func NewPublicList(gw gateway.Reviews, logger *slog.Logger) *PublicList {
	return &PublicList{list{gw: gw, filter: model.ReviewFilter{ApprovedOnly: true}, logger: logger}}
}

// Average is the mean rating of the loaded reviews, 0 when there are none.
func (p *PublicList) Average() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return model.AverageRating(p.reviews)
}
