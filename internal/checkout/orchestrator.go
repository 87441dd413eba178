package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Raymond9734/campaign-checkout/internal/models"
)

// StatusCommitted is the only backend status that counts as a persisted campaign
const StatusCommitted = http.StatusCreated

// Phase is the payment stage reached by an Orchestrator
type Phase int

// Payment phases
const (
	PhaseIdle Phase = iota
	PhaseQuoting
	PhaseQuoted
	PhaseAuthorizing
	PhaseReady
	PhaseConfirming
	PhaseCommitting
	PhaseCommitted
	PhasePaymentFailed
	PhaseCommitFailed
	PhaseCancelled
)

var phaseNames = map[Phase]string{
	PhaseIdle:          "idle",
	PhaseQuoting:       "quoting",
	PhaseQuoted:        "quoted",
	PhaseAuthorizing:   "authorizing",
	PhaseReady:         "ready",
	PhaseConfirming:    "confirming",
	PhaseCommitting:    "committing",
	PhaseCommitted:     "committed",
	PhasePaymentFailed: "payment_failed",
	PhaseCommitFailed:  "commit_failed",
	PhaseCancelled:     "cancelled",
}

func (p Phase) String() string {
	return phaseNames[p]
}

// Checkout is what the payment stage shows once an authorization is open
type Checkout struct {
	Quote               models.CostQuote
	AuthorizationSecret string
	Description         string
}

// Receipt is the outcome of a committed campaign
type Receipt struct {
	Quote          models.CostQuote
	ConfirmationID string
}

// Orchestrator runs the payment sequence for one finalized draft: quote,
// authorize, collect and confirm, then commit.
//
// At most one authorization exists per quote. Every quote carries a token;
// results of remote calls made under a token that is no longer active
// (after Invalidate or Cancel) are discarded.
type Orchestrator struct {
	pricer     Pricer
	authorizer Authorizer
	collector  Collector
	committer  Committer
	logger     *slog.Logger

	mu          sync.Mutex
	phase       Phase
	draft       *models.FinalizedDraft
	quote       *models.CostQuote
	auth        *models.PaymentAuthorization
	activeToken uint64
	lastToken   uint64
	lastErr     error
	receipt     *Receipt
}

// NewOrchestrator creates an orchestrator. The collector is the payment
// gateway capability used for every confirmation.
func NewOrchestrator(
	pricer Pricer,
	authorizer Authorizer,
	collector Collector,
	committer Committer,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		pricer:     pricer,
		authorizer: authorizer,
		collector:  collector,
		committer:  committer,
		logger:     logger,
	}
}

// Phase returns the current phase
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Quote returns the active quote, if any
func (o *Orchestrator) Quote() (models.CostQuote, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.quote == nil {
		return models.CostQuote{}, false
	}
	return *o.quote, true
}

// HasAuthorization reports whether an authorization is outstanding
func (o *Orchestrator) HasAuthorization() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.auth != nil
}

// Prepare quotes the draft and opens its payment authorization. Drafts with
// fewer than MinRecipients recipients are refused before any remote call.
//
// Calling Prepare again for a draft with the same recipient count while an
// authorization is active returns it without any remote call. A changed
// recipient count discards the previous quote and authorization.
func (o *Orchestrator) Prepare(ctx context.Context, draft models.FinalizedDraft) (*Checkout, error) {
	o.mu.Lock()
	switch o.phase {
	case PhaseQuoting, PhaseAuthorizing:
		o.mu.Unlock()
		return nil, ErrAuthorizationPending
	case PhaseConfirming, PhaseCommitting:
		o.mu.Unlock()
		return nil, ErrPaymentInProgress
	case PhaseCommitted, PhaseCommitFailed, PhasePaymentFailed:
		o.mu.Unlock()
		return nil, ErrInvalidTransition
	case PhaseCancelled:
		o.mu.Unlock()
		return nil, ErrCancelled
	}

	count := draft.RecipientCount()
	if count < MinRecipients {
		o.mu.Unlock()
		return nil, ErrNotEnoughRecipients
	}
	if o.quote != nil && o.quote.RecipientCount != count {
		o.logger.Info("recipient count changed, discarding quote",
			slog.Int("previous_count", o.quote.RecipientCount),
			slog.Int("recipient_count", count),
		)
		o.discardLocked()
	}
	o.draft = &draft

	if o.phase == PhaseReady && o.auth != nil {
		checkout := o.checkoutLocked()
		o.mu.Unlock()
		return checkout, nil
	}

	var quote models.CostQuote
	if o.phase == PhaseQuoted && o.quote != nil {
		quote = *o.quote
	} else {
		o.lastToken++
		token := o.lastToken
		o.activeToken = token
		o.phase = PhaseQuoting
		o.mu.Unlock()

		total, err := o.pricer.Quote(ctx, count)

		o.mu.Lock()
		if o.activeToken != token {
			o.mu.Unlock()
			return nil, ErrCancelled
		}
		if err != nil {
			o.phase = PhaseIdle
			o.mu.Unlock()
			o.logger.Error("quote failed",
				slog.Int("recipient_count", count),
				slog.String("error", err.Error()),
			)
			return nil, &QuoteError{RecipientCount: count, Err: err}
		}

		quote = models.NewCostQuote(count, total)
		quote.Token = token
		o.quote = &quote
		o.phase = PhaseQuoted
	}

	if o.auth != nil && o.auth.QuoteToken == quote.Token {
		// an authorization for this quote already exists
		o.mu.Unlock()
		return nil, ErrAuthorizationPending
	}
	o.phase = PhaseAuthorizing
	description := draft.CampaignName()
	o.mu.Unlock()

	secret, err := o.authorizer.CreateAuthorization(ctx, quote.TotalCost, description)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.activeToken != quote.Token {
		if err == nil {
			o.logger.Warn("authorization created for a discarded quote, it is left outstanding",
				slog.String("description", description),
			)
		}
		return nil, ErrCancelled
	}
	if err != nil {
		o.phase = PhaseQuoted
		o.logger.Error("authorization failed",
			slog.String("amount", quote.TotalCost.StringFixed(2)),
			slog.String("error", err.Error()),
		)
		return nil, &AuthorizationError{Err: err}
	}

	o.auth = &models.PaymentAuthorization{
		Secret:      secret,
		Amount:      quote.TotalCost,
		Description: description,
		QuoteToken:  quote.Token,
	}
	o.phase = PhaseReady

	o.logger.Info("payment authorization opened",
		slog.Int("recipient_count", quote.RecipientCount),
		slog.String("total_cost", quote.TotalCost.StringFixed(2)),
	)

	return o.checkoutLocked(), nil
}

// Confirm submits the card for the active authorization and, on success,
// commits the campaign. A declined card leaves the authorization usable for
// another attempt. Unexpected gateway failures and commit failures are final.
func (o *Orchestrator) Confirm(ctx context.Context, card models.Card) (*Receipt, error) {
	o.mu.Lock()
	switch o.phase {
	case PhaseConfirming, PhaseCommitting:
		o.mu.Unlock()
		return nil, ErrPaymentInProgress
	case PhaseCommitted:
		o.mu.Unlock()
		return nil, ErrInvalidTransition
	case PhasePaymentFailed, PhaseCommitFailed:
		err := o.lastErr
		o.mu.Unlock()
		return nil, err
	case PhaseCancelled:
		o.mu.Unlock()
		return nil, ErrCancelled
	}
	if o.phase != PhaseReady || o.auth == nil || o.draft == nil {
		o.mu.Unlock()
		return nil, ErrNoAuthorization
	}

	token := o.activeToken
	secret := o.auth.Secret
	draft := *o.draft
	quote := *o.quote
	o.phase = PhaseConfirming
	o.mu.Unlock()

	confirmationID, err := o.collector.Confirm(ctx, secret, card)

	o.mu.Lock()
	if o.activeToken != token || o.phase == PhaseCancelled {
		o.mu.Unlock()
		if err == nil {
			o.logger.Warn("payment confirmed after cancel, campaign not committed",
				slog.String("confirmation_id", confirmationID),
			)
		}
		return nil, ErrCancelled
	}

	if err != nil {
		var gwErr *GatewayError
		if errors.As(err, &gwErr) && gwErr.Declined() {
			o.phase = PhaseReady
			o.mu.Unlock()
			o.logger.Info("payment declined",
				slog.String("type", gwErr.Type),
				slog.String("message", gwErr.Message),
			)
			return nil, &PaymentDeclineError{Type: gwErr.Type, Message: gwErr.Message}
		}

		o.phase = PhasePaymentFailed
		o.lastErr = &UnexpectedPaymentError{Err: err}
		failure := o.lastErr
		o.mu.Unlock()
		o.logger.Error("payment confirmation failed", slog.String("error", err.Error()))
		return nil, failure
	}

	o.phase = PhaseCommitting
	o.mu.Unlock()

	status, err := o.committer.Commit(ctx, draft.CommitRequest(confirmationID))

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil || status != StatusCommitted {
		o.phase = PhaseCommitFailed
		o.lastErr = &CommitError{Status: status, Err: err}
		attrs := []any{
			slog.String("confirmation_id", confirmationID),
			slog.Int("status", status),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		o.logger.Error("campaign commit failed after payment", attrs...)
		return nil, o.lastErr
	}

	o.phase = PhaseCommitted
	o.receipt = &Receipt{Quote: quote, ConfirmationID: confirmationID}

	o.logger.Info("campaign committed",
		slog.String("confirmation_id", confirmationID),
		slog.Int("recipient_count", quote.RecipientCount),
	)

	return o.receipt, nil
}

// Invalidate discards the active quote and authorization so the draft can be
// edited again. It is refused while a payment is being processed or after the
// campaign reached a final state.
func (o *Orchestrator) Invalidate() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.phase {
	case PhaseConfirming, PhaseCommitting:
		return ErrPaymentInProgress
	case PhaseCommitted, PhaseCommitFailed:
		return ErrInvalidTransition
	case PhaseCancelled:
		return ErrCancelled
	}

	o.discardLocked()
	o.draft = nil
	o.lastErr = nil
	o.phase = PhaseIdle
	return nil
}

// Cancel aborts the flow. Results of calls still in flight are ignored. The
// outstanding authorization, if any, is not voided. A failed commit is final
// and cannot be cancelled; Confirm keeps reporting it.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.phase {
	case PhaseCommitting:
		return ErrPaymentInProgress
	case PhaseCommitted, PhaseCommitFailed:
		return ErrInvalidTransition
	case PhaseCancelled:
		return nil
	}

	if o.auth != nil {
		o.logger.Warn("checkout cancelled with an outstanding payment authorization",
			slog.String("amount", o.auth.Amount.StringFixed(2)),
			slog.String("description", o.auth.Description),
		)
	}
	o.activeToken = 0
	o.phase = PhaseCancelled
	return nil
}

func (o *Orchestrator) discardLocked() {
	if o.auth != nil {
		o.logger.Info("discarding payment authorization",
			slog.String("amount", o.auth.Amount.StringFixed(2)),
		)
	}
	o.quote = nil
	o.auth = nil
	o.activeToken = 0
	if o.phase == PhaseQuoted || o.phase == PhaseReady {
		o.phase = PhaseIdle
	}
}

func (o *Orchestrator) checkoutLocked() *Checkout {
	return &Checkout{
		Quote:               *o.quote,
		AuthorizationSecret: o.auth.Secret,
		Description:         o.auth.Description,
	}
}
