package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raymond9734/campaign-checkout/internal/models"
)

func seedRecipients(n int, blacklisted ...int64) []models.Recipient {
	out := make([]models.Recipient, 0, n)
	for i := 1; i <= n; i++ {
		r := models.Recipient{ID: int64(i), FirstName: fmt.Sprintf("First%d", i), LastName: fmt.Sprintf("Last%d", i)}
		for _, id := range blacklisted {
			if id == r.ID {
				r.Blacklisted = true
			}
		}
		out = append(out, r)
	}
	return out
}

func TestRecipientService_Search(t *testing.T) {
	tests := []struct {
		name          string
		query         models.DirectoryQuery
		wantIDs       []int64
		wantTotal     int64
		wantPageSize  int
		wantSortOrder string
	}{
		{
			name:          "defaults applied",
			query:         models.DirectoryQuery{ExcludeBlacklisted: true},
			wantIDs:       []int64{1, 2, 4, 5, 6, 7, 8, 9, 10, 11},
			wantTotal:     23,
			wantPageSize:  models.DirectoryPageSize,
			wantSortOrder: models.SortAsc,
		},
		{
			name:          "last page",
			query:         models.DirectoryQuery{Page: 2, PageSize: 10, ExcludeBlacklisted: true},
			wantIDs:       []int64{23, 24, 25},
			wantTotal:     23,
			wantPageSize:  10,
			wantSortOrder: models.SortAsc,
		},
		{
			name:          "blacklisted included",
			query:         models.DirectoryQuery{Page: 0, PageSize: 5, SortOrder: models.SortDesc},
			wantIDs:       []int64{1, 2, 3, 4, 5},
			wantTotal:     25,
			wantPageSize:  5,
			wantSortOrder: models.SortDesc,
		},
		{
			name:          "page size capped",
			query:         models.DirectoryQuery{PageSize: 500, ExcludeBlacklisted: true, SearchTerm: "first2"},
			wantIDs:       []int64{2, 20, 21, 22, 23, 24, 25},
			wantTotal:     7,
			wantPageSize:  100,
			wantSortOrder: models.SortAsc,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRecipientRepository{recipients: seedRecipients(25, 3, 12)}
			svc := NewRecipientService(repo, testLogger())

			page, err := svc.Search(context.Background(), tt.query)
			require.NoError(t, err)

			ids := make([]int64, 0, len(page.Items))
			for _, r := range page.Items {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantTotal, page.TotalCount)

			require.Len(t, repo.queries, 1)
			assert.Equal(t, tt.wantPageSize, repo.queries[0].PageSize)
			assert.Equal(t, tt.wantSortOrder, repo.queries[0].SortOrder)
		})
	}
}

func TestRecipientService_Search_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		query models.DirectoryQuery
	}{
		{name: "negative page", query: models.DirectoryQuery{Page: -1}},
		{name: "unknown sort", query: models.DirectoryQuery{SortOrder: "sideways"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRecipientRepository{}
			svc := NewRecipientService(repo, testLogger())

			_, err := svc.Search(context.Background(), tt.query)

			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, models.CodeInvalidInput, appErr.Code)
			assert.Empty(t, repo.queries)
		})
	}
}

func TestRecipientService_Search_RepositoryError(t *testing.T) {
	repo := &mockRecipientRepository{err: errors.New("connection reset")}
	svc := NewRecipientService(repo, testLogger())

	_, err := svc.Search(context.Background(), models.DirectoryQuery{})
	assert.Error(t, err)
}
