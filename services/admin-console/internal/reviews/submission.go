package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway"
	"github.com/utiibeauty/parlour/services/admin-console/internal/resync"
	"github.com/utiibeauty/parlour/services/admin-console/internal/ui"
)

const (
	ThanksAlert        = "Thank you for your review! It will be visible shortly."
	SubmitFailureAlert = "Failed to submit review. Please try again."
	defaultRating      = model.MaxRating
)

var errNameAndTextRequired = errors.New("name and review text are required")

type Form struct {
	Name       string
	Rating     int
	ReviewText string
}

func emptyForm() Form { return Form{Rating: defaultRating} }

// Submission is the collapsible "write a review" form.
type Submission struct {
	gw       gateway.Reviews
	pipeline *resync.Pipeline
	notifier ui.Notifier
	public   *PublicList

	mu         sync.Mutex
	form       Form
	open       bool
	submitting bool
}

// NewSubmission returns a collapsed form. After a successful submit the
// public list is re-read.
func NewSubmission(gw gateway.Reviews, pipeline *resync.Pipeline, notifier ui.Notifier, public *PublicList) *Submission {
	return &Submission{gw: gw, pipeline: pipeline, notifier: notifier, public: public, form: emptyForm()}
}

func (s *Submission) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
}

func (s *Submission) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
}

func (s *Submission) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Submission) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *Submission) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Name = name
}

func (s *Submission) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.ReviewText = text
}

// SetRating sets the star rating, as clicking the n-th star does.
func (s *Submission) SetRating(n int) error {
	if n < model.MinRating || n > model.MaxRating {
		return fmt.Errorf("rating must be between %d and %d, got %d", model.MinRating, model.MaxRating, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Rating = n
	return nil
}

func (s *Submission) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Submit sends the review. On success the form is cleared and collapsed; on
// failure it is kept so the customer can retry.
func (s *Submission) Submit(ctx context.Context) resync.Outcome {
	s.mu.Lock()
	f := s.form
	s.submitting = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	return s.pipeline.Run(ctx, resync.Mutation{
		Op:           gateway.OpSubmitReview,
		FailureAlert: SubmitFailureAlert,
		Mutate: func(ctx context.Context) error {
			if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.ReviewText) == "" {
				return errNameAndTextRequired
			}
			return s.gw.SubmitReview(ctx, model.NewReview{
				CustomerName: f.Name,
				Rating:       f.Rating,
				ReviewText:   f.ReviewText,
			})
		},
		Resync: func(ctx context.Context) {
			s.mu.Lock()
			s.form = emptyForm()
			s.open = false
			s.mu.Unlock()
			s.notifier.Alert(ThanksAlert)
			if s.public != nil {
				s.public.Fetch(ctx)
			}
		},
	})
}
