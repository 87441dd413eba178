package models

// Recipient is a customer eligible to receive a promotional campaign.
// Recipients are read-only; they are never mutated by the checkout flow.
type Recipient struct {
	ID          int64   `json:"id" db:"id"`
	FirstName   string  `json:"first_name" db:"first_name"`
	LastName    string  `json:"last_name" db:"last_name"`
	Email       *string `json:"email,omitempty" db:"email"`
	Phone       *string `json:"phone,omitempty" db:"phone"`
	Blacklisted bool    `json:"-" db:"blacklisted"`
}

// Sort orders accepted by the recipient directory
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// DirectoryQuery holds the options for one page of the recipient directory.
// Page is zero-based.
type DirectoryQuery struct {
	Page               int
	PageSize           int
	SortOrder          string
	ExcludeBlacklisted bool
	SearchTerm         string
}

// DirectoryPage is one page of the recipient directory
type DirectoryPage struct {
	Items      []Recipient `json:"items"`
	TotalCount int64       `json:"total_count"`
}

// RecipientRef identifies a recipient in a commit request
type RecipientRef struct {
	ID int64 `json:"id"`
}

// EmailOrEmpty returns the recipient email or an empty string
func (r Recipient) EmailOrEmpty() string {
	if r.Email == nil {
		return ""
	}
	return *r.Email
}
