// Package validation evaluates campaign draft fields.
//
// Rules are independent: Validate always evaluates every field and reports all
// violations together so a caller can display them at once.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Raymond9734/campaign-checkout/internal/models"
)

// Field names a validated draft field
type Field string

// Draft fields
const (
	FieldCampaignName     Field = "campaign_name"
	FieldPromotionCode    Field = "promotion_code"
	FieldPromotionMessage Field = "promotion_message"
	FieldMessageSendTime  Field = "message_send_time"
)

// Field limits
const (
	CampaignNameMin     = 3
	CampaignNameMax     = 100
	PromotionCodeMin    = 3
	PromotionCodeMax    = 20
	PromotionMessageMin = 10
	PromotionMessageMax = 144

	// MinDaysAhead is how many calendar days after today a campaign may be sent at the earliest
	MinDaysAhead = 2

	// MinRecipients is the smallest recipient set a campaign may be created for
	MinRecipients = 2
)

var (
	campaignNamePattern  = regexp.MustCompile(`^[\p{L}\p{N} _-]+$`)
	promotionCodePattern = regexp.MustCompile(`^[A-Z0-9]+$`)
)

// Errors maps each invalid field to its message. A nil or empty map means the draft is valid.
type Errors map[Field]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s %s", f, e[Field(f)]))
	}
	return "invalid campaign: " + strings.Join(parts, "; ")
}

// Empty reports whether no field is in error
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Clear removes the error displayed for one field without re-evaluating the others
func (e Errors) Clear(field Field) {
	delete(e, field)
}

// Validate evaluates every rule against the draft. now anchors the send time rule.
func Validate(draft models.CampaignDraft, now time.Time) Errors {
	errs := Errors{}

	if msg := checkCampaignName(draft.CampaignName); msg != "" {
		errs[FieldCampaignName] = msg
	}
	if msg := checkPromotionCode(NormalizePromotionCode(draft.PromotionCode)); msg != "" {
		errs[FieldPromotionCode] = msg
	}
	if msg := checkPromotionMessage(draft.PromotionMessage); msg != "" {
		errs[FieldPromotionMessage] = msg
	}
	if msg := checkSendTime(draft.MessageSendTime, now); msg != "" {
		errs[FieldMessageSendTime] = msg
	}

	return errs
}

// NormalizePromotionCode upper-cases a promotion code as entered
func NormalizePromotionCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// TruncateMessage cuts a promotion message at the maximum length
func TruncateMessage(message string) string {
	if utf8.RuneCountInString(message) <= PromotionMessageMax {
		return message
	}
	return string([]rune(message)[:PromotionMessageMax])
}

// EarliestSendDay returns the first calendar day a campaign may be sent on
func EarliestSendDay(now time.Time) time.Time {
	return startOfDay(now).AddDate(0, 0, MinDaysAhead)
}

func checkCampaignName(name string) string {
	if msg := checkLength(name, CampaignNameMin, CampaignNameMax); msg != "" {
		return msg
	}
	if !campaignNamePattern.MatchString(name) {
		return "may only contain letters, numbers, spaces, hyphens and underscores"
	}
	return ""
}

func checkPromotionCode(code string) string {
	if msg := checkLength(code, PromotionCodeMin, PromotionCodeMax); msg != "" {
		return msg
	}
	if !promotionCodePattern.MatchString(code) {
		return "may only contain letters and numbers"
	}
	return ""
}

func checkPromotionMessage(message string) string {
	return checkLength(message, PromotionMessageMin, PromotionMessageMax)
}

func checkSendTime(sendAt, now time.Time) string {
	if sendAt.IsZero() {
		return "is required"
	}
	earliest := EarliestSendDay(now)
	if startOfDay(sendAt.In(now.Location())).Before(earliest) {
		return fmt.Sprintf("must be on or after %s", earliest.Format("02-01-2006"))
	}
	return ""
}

func checkLength(value string, min, max int) string {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case n == 0:
		return "is required"
	case n < min:
		return fmt.Sprintf("must be at least %d characters", min)
	case n > max:
		return fmt.Sprintf("must be at most %d characters", max)
	}
	return ""
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
