package checkout

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raymond9734/campaign-checkout/internal/validation"
)

var wizardNow = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

type wizardFixture struct {
	*orchestratorFixture
	directory *fakeDirectory
	selector  *Selector
	w         *Wizard
}

func newWizardFixture() *wizardFixture {
	of := newOrchestratorFixture()
	directory := newFakeDirectory(5)
	selector := NewSelector(directory, testLogger())
	return &wizardFixture{
		orchestratorFixture: of,
		directory:           directory,
		selector:            selector,
		w:                   NewWizard(selector, of.o, testLogger(), WithClock(func() time.Time { return wizardNow })),
	}
}

// toDetails selects n recipients and enters the details step
func (f *wizardFixture) toDetails(t *testing.T, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		f.selector.Add(newRecipient(int64(i)))
	}
	require.NoError(t, f.w.Next())
}

func (f *wizardFixture) fillValid(t *testing.T) {
	t.Helper()
	require.NoError(t, f.w.SetField(validation.FieldCampaignName, "Summer Sale 2024"))
	require.NoError(t, f.w.SetField(validation.FieldPromotionCode, "summer24"))
	require.NoError(t, f.w.SetField(validation.FieldPromotionMessage, "Get 20% off everything this week!"))
	require.NoError(t, f.w.SetSendTime(wizardNow.Add(72*time.Hour)))
}

func TestWizard_Next_RequiresTwoRecipients(t *testing.T) {
	f := newWizardFixture()

	f.selector.Add(newRecipient(1))
	assert.ErrorIs(t, f.w.Next(), ErrNotEnoughRecipients)
	assert.Equal(t, StepSelecting, f.w.Step())

	f.selector.Add(newRecipient(2))
	require.NoError(t, f.w.Next())
	assert.Equal(t, StepDetailing, f.w.Step())
}

func TestWizard_SetField_OnlyWhileDetailing(t *testing.T) {
	f := newWizardFixture()

	assert.ErrorIs(t, f.w.SetField(validation.FieldCampaignName, "Summer"), ErrInvalidTransition)
	assert.ErrorIs(t, f.w.SetSendTime(wizardNow), ErrInvalidTransition)
}

func TestWizard_SetField_NormalizesInput(t *testing.T) {
	f := newWizardFixture()
	f.toDetails(t, 2)

	require.NoError(t, f.w.SetField(validation.FieldPromotionCode, " summer24 "))
	long := make([]rune, 200)
	for i := range long {
		long[i] = 'x'
	}
	require.NoError(t, f.w.SetField(validation.FieldPromotionMessage, string(long)))

	draft := f.w.Draft()
	assert.Equal(t, "SUMMER24", draft.PromotionCode)
	assert.Len(t, []rune(draft.PromotionMessage), validation.PromotionMessageMax)

	assert.Error(t, f.w.SetField(validation.FieldMessageSendTime, "tomorrow"))
}

func TestWizard_Submit_CollectsAllErrors(t *testing.T) {
	f := newWizardFixture()
	f.toDetails(t, 2)

	_, err := f.w.Submit(context.Background())

	var errs validation.Errors
	require.True(t, errors.As(err, &errs))
	assert.Len(t, errs, 4)
	assert.Equal(t, StepDetailing, f.w.Step())
	assert.Empty(t, f.pricer.calls)
	assert.Len(t, f.w.FieldErrors(), 4)
}

func TestWizard_EditClearsOnlyThatFieldError(t *testing.T) {
	f := newWizardFixture()
	f.toDetails(t, 2)
	require.NoError(t, f.w.SetField(validation.FieldCampaignName, "ab"))
	require.NoError(t, f.w.SetField(validation.FieldPromotionCode, "x"))

	_, err := f.w.Submit(context.Background())
	require.Error(t, err)
	require.Contains(t, f.w.FieldErrors(), validation.FieldCampaignName)
	require.Contains(t, f.w.FieldErrors(), validation.FieldPromotionCode)

	// still invalid, but the displayed error is cleared until the next submit
	require.NoError(t, f.w.SetField(validation.FieldCampaignName, "a"))

	shown := f.w.FieldErrors()
	assert.NotContains(t, shown, validation.FieldCampaignName)
	assert.Contains(t, shown, validation.FieldPromotionCode)
	assert.Contains(t, shown, validation.FieldPromotionMessage)
	assert.Contains(t, shown, validation.FieldMessageSendTime)
}

func TestWizard_Submit_FreezesDraftAndPrepares(t *testing.T) {
	f := newWizardFixture()
	f.toDetails(t, 2)
	f.fillValid(t)

	checkout, err := f.w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepPaying, f.w.Step())
	assert.Equal(t, "10", checkout.Quote.TotalCost.String())
	assert.Equal(t, "Summer Sale 2024", checkout.Description)
	assert.Equal(t, []int{2}, f.pricer.calls)

	// later selection edits do not reach the frozen draft
	f.selector.Add(newRecipient(3))
	receipt, err := f.w.Confirm(context.Background(), testCard)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", receipt.ConfirmationID)
	assert.Equal(t, StepCommitted, f.w.Step())

	require.Len(t, f.committer.requests, 1)
	req := f.committer.requests[0]
	assert.Len(t, req.Recipients, 2)
	assert.Equal(t, "SUMMER24", req.PromotionCode)
	assert.Equal(t, "13-06-2024 12:00", req.MessageSendTime)
	assert.Len(t, f.authorizer.calls, 1)

	assert.ErrorIs(t, f.w.Cancel(), ErrInvalidTransition)
	assert.ErrorIs(t, f.w.Back(), ErrInvalidTransition)
}

func TestWizard_Submit_RechecksRecipientMinimum(t *testing.T) {
	f := newWizardFixture()
	f.toDetails(t, 2)
	f.fillValid(t)

	require.True(t, f.selector.Remove(2))
	_, err := f.w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotEnoughRecipients)

	require.True(t, f.selector.Remove(1))
	_, err = f.w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotEnoughRecipients)

	assert.Equal(t, StepDetailing, f.w.Step())
	assert.Empty(t, f.pricer.calls)
	assert.Empty(t, f.authorizer.calls)

	f.selector.Add(newRecipient(4))
	f.selector.Add(newRecipient(5))
	checkout, err := f.w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, checkout.Quote.RecipientCount)
}

func TestWizard_CommitFailureIsFinal(t *testing.T) {
	f := newWizardFixture()
	f.committer.status = http.StatusInternalServerError
	f.toDetails(t, 2)
	f.fillValid(t)

	_, err := f.w.Submit(context.Background())
	require.NoError(t, err)

	_, err = f.w.Confirm(context.Background(), testCard)
	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)

	assert.ErrorIs(t, f.w.Cancel(), ErrInvalidTransition)
	assert.Equal(t, StepPaying, f.w.Step())

	_, err = f.w.Confirm(context.Background(), testCard)
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, RefundDisclaimer, UserMessage(err))
	assert.Len(t, f.committer.requests, 1)
}

func TestWizard_Submit_AuthorizationFailureAllowsRetry(t *testing.T) {
	f := newWizardFixture()
	f.authorizer.err = errors.New("status 503")
	f.toDetails(t, 2)
	f.fillValid(t)

	_, err := f.w.Submit(context.Background())
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, StepPaying, f.w.Step())

	_, err = f.w.Confirm(context.Background(), testCard)
	assert.ErrorIs(t, err, ErrNoAuthorization)

	f.authorizer.err = nil
	checkout, err := f.w.RetryPrepare(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, checkout.AuthorizationSecret)
	assert.Len(t, f.pricer.calls, 1)
}

func TestWizard_BackFromPayingInvalidates(t *testing.T) {
	f := newWizardFixture()
	f.toDetails(t, 2)
	f.fillValid(t)

	_, err := f.w.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, f.orchestrator().HasAuthorization())

	require.NoError(t, f.w.Back())
	assert.Equal(t, StepDetailing, f.w.Step())
	assert.False(t, f.orchestrator().HasAuthorization())

	_, err = f.w.RetryPrepare(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// back again to selection, add a recipient and resubmit for a new quote
	require.NoError(t, f.w.Back())
	f.selector.Add(newRecipient(3))
	require.NoError(t, f.w.Next())

	checkout, err := f.w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, checkout.Quote.RecipientCount)
	assert.Equal(t, []int{2, 3}, f.pricer.calls)
	assert.Len(t, f.authorizer.calls, 2)
}

func TestWizard_Cancel(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *wizardFixture)
	}{
		{name: "while selecting", setup: func(t *testing.T, f *wizardFixture) {}},
		{name: "while detailing", setup: func(t *testing.T, f *wizardFixture) { f.toDetails(t, 2) }},
		{name: "while paying", setup: func(t *testing.T, f *wizardFixture) {
			f.toDetails(t, 2)
			f.fillValid(t)
			_, err := f.w.Submit(context.Background())
			require.NoError(t, err)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWizardFixture()
			tt.setup(t, f)

			require.NoError(t, f.w.Cancel())
			assert.Equal(t, StepCancelled, f.w.Step())
			require.NoError(t, f.w.Cancel())

			assert.ErrorIs(t, f.w.Next(), ErrInvalidTransition)
			_, err := f.w.Confirm(context.Background(), testCard)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Empty(t, f.committer.requests)
		})
	}
}

func (f *wizardFixture) orchestrator() *Orchestrator {
	return f.o
}
