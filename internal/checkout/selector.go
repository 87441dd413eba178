package checkout

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/Raymond9734/campaign-checkout/internal/models"
)

// View is one displayed page of recipients
type View struct {
	Items      []models.Recipient
	Page       int
	TotalCount int
	TotalPages int
}

// SelectorOption configures a Selector
type SelectorOption func(*Selector)

// WithSortOrder sets the directory sort order
func WithSortOrder(order string) SelectorOption {
	return func(s *Selector) { s.sortOrder = order }
}

// WithBlacklisted includes blacklisted recipients in directory results
func WithBlacklisted() SelectorOption {
	return func(s *Selector) { s.excludeBlacklisted = false }
}

// Selector owns the recipient set of a campaign.
//
// The available view holds a single directory page; the selected view is the
// whole recipient set, paged and searched in memory. Recipients already selected
// are filtered out of the available view when it is displayed.
type Selector struct {
	directory          Directory
	logger             *slog.Logger
	pageSize           int
	sortOrder          string
	excludeBlacklisted bool

	// writeMu serializes every mutation of the recipient set, including the
	// whole of AddAll.
	writeMu sync.Mutex

	mu       sync.RWMutex
	selected []models.Recipient
	ids      map[int64]struct{}

	available     models.DirectoryPage
	availablePage int
}

// NewSelector creates a selector reading from the given directory
func NewSelector(directory Directory, logger *slog.Logger, opts ...SelectorOption) *Selector {
	s := &Selector{
		directory:          directory,
		logger:             logger,
		pageSize:           models.DirectoryPageSize,
		sortOrder:          models.SortAsc,
		excludeBlacklisted: true,
		ids:                make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadAvailable fetches one directory page into the available view
func (s *Selector) LoadAvailable(ctx context.Context, page int, searchTerm string) error {
	result, err := s.directory.Search(ctx, s.query(page, searchTerm))
	if err != nil {
		s.logger.Warn("failed to load available recipients",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		return &DirectoryFetchError{Page: page, Err: err}
	}

	s.mu.Lock()
	s.available = *result
	s.availablePage = page
	s.mu.Unlock()

	return nil
}

// AvailableView returns the loaded directory page without already selected recipients
func (s *Selector) AvailableView() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.Recipient, 0, len(s.available.Items))
	for _, r := range s.available.Items {
		if _, selected := s.ids[r.ID]; !selected {
			items = append(items, r)
		}
	}

	return View{
		Items:      items,
		Page:       s.availablePage,
		TotalCount: int(s.available.TotalCount),
		TotalPages: models.TotalPages(s.available.TotalCount, s.pageSize),
	}
}

// Add appends a recipient to the end of the set. It returns false when the id is already selected.
func (s *Selector) Add(r models.Recipient) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[r.ID]; exists {
		s.logger.Warn("recipient already selected", slog.Int64("recipient_id", r.ID))
		return false
	}
	s.selected = append(s.selected, r)
	s.ids[r.ID] = struct{}{}
	return true
}

// Remove drops a recipient by id. It returns false when the id was not selected.
func (s *Selector) Remove(id int64) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[id]; !exists {
		return false
	}
	delete(s.ids, id)
	for i, r := range s.selected {
		if r.ID == id {
			s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
			break
		}
	}
	return true
}

// RemoveAll clears the recipient set
func (s *Selector) RemoveAll() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.selected = nil
	s.ids = make(map[int64]struct{})
	s.mu.Unlock()
}

// AddAll fetches every directory page in order and merges the result into the
// set in one step. Existing selections keep their order; new recipients are
// appended in fetched order. On any fetch error the set is left unchanged.
func (s *Selector) AddAll(ctx context.Context) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var fetched []models.Recipient
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return 0, &DirectoryFetchError{Page: page, Err: err}
		}

		result, err := s.directory.Search(ctx, s.query(page, ""))
		if err != nil {
			s.logger.Warn("add all aborted, selection unchanged",
				slog.Int("page", page),
				slog.String("error", err.Error()),
			)
			return 0, &DirectoryFetchError{Page: page, Err: err}
		}
		fetched = append(fetched, result.Items...)

		if len(result.Items) == 0 || page+1 >= models.TotalPages(result.TotalCount, s.pageSize) {
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range fetched {
		if _, exists := s.ids[r.ID]; exists {
			continue
		}
		s.selected = append(s.selected, r)
		s.ids[r.ID] = struct{}{}
		added++
	}

	s.logger.Info("all recipients added",
		slog.Int("fetched", len(fetched)),
		slog.Int("added", added),
		slog.Int("selected", len(s.selected)),
	)

	return added, nil
}

// Count returns the number of selected recipients
func (s *Selector) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}

// Recipients returns a copy of the recipient set in selection order
func (s *Selector) Recipients() []models.Recipient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Recipient(nil), s.selected...)
}

// Search returns the selected recipients whose first name, last name or email
// contains term, ignoring case. An empty term matches everyone.
func (s *Selector) Search(term string) []models.Recipient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterRecipients(s.selected, term)
}

// SelectedView returns one page of the searched recipient set. The page is not
// clamped; use ClampPage when the filtered set shrinks.
func (s *Selector) SelectedView(page int, term string) View {
	matches := s.Search(term)

	start := page * s.pageSize
	if start > len(matches) || page < 0 {
		start = len(matches)
	}
	end := start + s.pageSize
	if end > len(matches) {
		end = len(matches)
	}

	return View{
		Items:      matches[start:end],
		Page:       page,
		TotalCount: len(matches),
		TotalPages: models.TotalPages(int64(len(matches)), s.pageSize),
	}
}

// ClampPage returns the last valid zero-based page for totalCount items when page is past it
func ClampPage(page, totalCount, pageSize int) int {
	last := models.TotalPages(int64(totalCount), pageSize) - 1
	if last < 0 {
		last = 0
	}
	if page > last {
		return last
	}
	if page < 0 {
		return 0
	}
	return page
}

func (s *Selector) query(page int, searchTerm string) models.DirectoryQuery {
	return models.DirectoryQuery{
		Page:               page,
		PageSize:           s.pageSize,
		SortOrder:          s.sortOrder,
		ExcludeBlacklisted: s.excludeBlacklisted,
		SearchTerm:         searchTerm,
	}
}

func filterRecipients(recipients []models.Recipient, term string) []models.Recipient {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Recipient, 0, len(recipients))
	for _, r := range recipients {
		if term == "" ||
			strings.Contains(strings.ToLower(r.FirstName), term) ||
			strings.Contains(strings.ToLower(r.LastName), term) ||
			strings.Contains(strings.ToLower(r.EmailOrEmpty()), term) {
			out = append(out, r)
		}
	}
	return out
}
