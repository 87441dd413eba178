package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Raymond9734/campaign-checkout/internal/models"
	"github.com/Raymond9734/campaign-checkout/internal/validation"
)

// MinRecipients is the smallest recipient set the wizard accepts
const MinRecipients = validation.MinRecipients

// Step is a wizard stage or terminal outcome
type Step int

// Wizard steps
const (
	StepSelecting Step = iota
	StepDetailing
	StepPaying
	StepCommitted
	StepCancelled
)

func (s Step) String() string {
	switch s {
	case StepSelecting:
		return "selecting"
	case StepDetailing:
		return "detailing"
	case StepPaying:
		return "paying"
	case StepCommitted:
		return "committed"
	case StepCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// WizardOption configures a Wizard
type WizardOption func(*Wizard)

// WithClock overrides the clock used by the send time rule
func WithClock(now func() time.Time) WizardOption {
	return func(w *Wizard) { w.now = now }
}

// Wizard owns a campaign draft and moves it through selection, details and payment
type Wizard struct {
	selector     *Selector
	orchestrator *Orchestrator
	logger       *slog.Logger
	now          func() time.Time

	mu        sync.Mutex
	step      Step
	draft     models.CampaignDraft
	errs      validation.Errors
	finalized *models.FinalizedDraft
}

// NewWizard creates a wizard in the selecting step
func NewWizard(selector *Selector, orchestrator *Orchestrator, logger *slog.Logger, opts ...WizardOption) *Wizard {
	w := &Wizard{
		selector:     selector,
		orchestrator: orchestrator,
		logger:       logger,
		now:          time.Now,
		step:         StepSelecting,
		errs:         validation.Errors{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Step returns the current step
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Selector returns the recipient selector
func (w *Wizard) Selector() *Selector {
	return w.selector
}

// Draft returns a copy of the draft being edited
func (w *Wizard) Draft() models.CampaignDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// FieldErrors returns the field errors currently displayed
func (w *Wizard) FieldErrors() validation.Errors {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(validation.Errors, len(w.errs))
	for f, msg := range w.errs {
		out[f] = msg
	}
	return out
}

// Next moves from selecting to detailing when enough recipients are selected
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepSelecting {
		return ErrInvalidTransition
	}
	if w.selector.Count() < MinRecipients {
		return ErrNotEnoughRecipients
	}

	w.step = StepDetailing
	return nil
}

// SetField edits a text field of the draft. The field's displayed error is
// cleared without re-validating; errors on other fields stay until the next Submit.
func (w *Wizard) SetField(field validation.Field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepDetailing {
		return ErrInvalidTransition
	}

	switch field {
	case validation.FieldCampaignName:
		w.draft.CampaignName = value
	case validation.FieldPromotionCode:
		w.draft.PromotionCode = validation.NormalizePromotionCode(value)
	case validation.FieldPromotionMessage:
		w.draft.PromotionMessage = validation.TruncateMessage(value)
	default:
		return fmt.Errorf("unknown text field %q", field)
	}

	w.errs.Clear(field)
	return nil
}

// SetSendTime edits the message send time with the same error clearing as SetField
func (w *Wizard) SetSendTime(sendAt time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepDetailing {
		return ErrInvalidTransition
	}

	w.draft.MessageSendTime = sendAt
	w.errs.Clear(validation.FieldMessageSendTime)
	return nil
}

// Submit validates the draft and, when every rule passes, freezes it with the
// selected recipients and enters the payment step, opening the payment
// authorization. Validation failures are returned as validation.Errors.
//
// The selector stays editable while detailing, so the recipient minimum is
// checked again here and the wizard stays in the details step when it fails.
func (w *Wizard) Submit(ctx context.Context) (*Checkout, error) {
	w.mu.Lock()
	if w.step != StepDetailing {
		w.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if w.selector.Count() < MinRecipients {
		w.mu.Unlock()
		return nil, ErrNotEnoughRecipients
	}

	errs := validation.Validate(w.draft, w.now())
	if !errs.Empty() {
		w.errs = errs
		w.mu.Unlock()
		return nil, errs
	}

	finalized := models.Finalize(w.draft, w.selector.Recipients())
	w.errs = validation.Errors{}
	w.finalized = &finalized
	w.step = StepPaying
	w.mu.Unlock()

	w.logger.Info("campaign details submitted",
		slog.String("campaign_name", finalized.CampaignName()),
		slog.Int("recipient_count", finalized.RecipientCount()),
	)

	return w.orchestrator.Prepare(ctx, finalized)
}

// RetryPrepare re-runs the quote and authorization for the frozen draft after a failure
func (w *Wizard) RetryPrepare(ctx context.Context) (*Checkout, error) {
	w.mu.Lock()
	if w.step != StepPaying || w.finalized == nil {
		w.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	finalized := *w.finalized
	w.mu.Unlock()

	return w.orchestrator.Prepare(ctx, finalized)
}

// Back steps one stage back. Leaving the payment step discards the quote and
// any outstanding authorization; it is refused while a payment is processed.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step {
	case StepDetailing:
		w.step = StepSelecting
		return nil
	case StepPaying:
		if err := w.orchestrator.Invalidate(); err != nil {
			return err
		}
		w.finalized = nil
		w.step = StepDetailing
		return nil
	}
	return ErrInvalidTransition
}

// Confirm pays with the given card and commits the campaign
func (w *Wizard) Confirm(ctx context.Context, card models.Card) (*Receipt, error) {
	w.mu.Lock()
	if w.step != StepPaying {
		w.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	w.mu.Unlock()

	receipt, err := w.orchestrator.Confirm(ctx, card)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.step = StepCommitted
	w.mu.Unlock()

	return receipt, nil
}

// Cancel abandons the wizard
func (w *Wizard) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step {
	case StepCommitted:
		return ErrInvalidTransition
	case StepCancelled:
		return nil
	case StepPaying:
		if err := w.orchestrator.Cancel(); err != nil {
			return err
		}
	}

	w.step = StepCancelled
	w.logger.Info("campaign checkout cancelled")
	return nil
}
