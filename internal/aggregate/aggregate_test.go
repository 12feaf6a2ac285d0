package aggregate

import (
	"testing"
	"time"

	"civicadmin/internal/domain"
	"civicadmin/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func report(id, userID, status string) models.Report {
	return models.Report{
		ID:        id,
		UserID:    userID,
		Title:     "report " + id,
		Category:  domain.CategoryPothole,
		Status:    status,
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func vote(reportID, kind string) models.Interaction {
	return models.Interaction{ReportID: reportID, UserID: "voter", InteractionType: kind}
}

func TestAggregate_CountsVotes(t *testing.T) {
	reports := []models.Report{report("a", "u1", domain.StatusReported)}
	interactions := []models.Interaction{
		vote("a", domain.InteractionUpvote),
		vote("a", domain.InteractionUpvote),
		vote("a", domain.InteractionDownvote),
	}

	rows := Aggregate(reports, interactions)

	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Upvotes)
	assert.Equal(t, 1, rows[0].Downvotes)
	assert.Empty(t, rows[0].ReporterName)
}

func TestAggregate_NoInteractions(t *testing.T) {
	reports := []models.Report{
		report("a", "u1", domain.StatusReported),
		report("b", "u2", domain.StatusResolved),
	}
	interactions := []models.Interaction{vote("zzz", domain.InteractionUpvote)}

	rows := Aggregate(reports, interactions)

	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Zero(t, r.Upvotes, r.ID)
		assert.Zero(t, r.Downvotes, r.ID)
	}
}

func TestAggregate_PreservesOrderAndFields(t *testing.T) {
	reports := []models.Report{
		report("c", "u1", domain.StatusReported),
		report("a", "u2", domain.StatusInProgress),
		report("b", "u3", domain.StatusResolved),
	}
	interactions := []models.Interaction{
		vote("b", domain.InteractionDownvote),
		vote("c", domain.InteractionUpvote),
		vote("b", domain.InteractionDownvote),
		vote("a", "bogus"),
	}

	got := Aggregate(reports, interactions)
	want := []models.ReportWithVotes{
		{Report: reports[0], Upvotes: 1},
		{Report: reports[1]},
		{Report: reports[2], Downvotes: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_CountsMatchInteractions(t *testing.T) {
	reports := make([]models.Report, 0, 20)
	for _, id := range []string{"r0", "r1", "r2", "r3", "r4"} {
		reports = append(reports, report(id, "u", domain.StatusReported))
	}
	var interactions []models.Interaction
	for i := 0; i < 200; i++ {
		kind := domain.InteractionUpvote
		if i%3 == 0 {
			kind = domain.InteractionDownvote
		}
		interactions = append(interactions, vote(reports[i%7%5].ID, kind))
	}

	rows := Aggregate(reports, interactions)

	for _, row := range rows {
		var up, down int
		for _, in := range interactions {
			if in.ReportID != row.ID {
				continue
			}
			if in.InteractionType == domain.InteractionUpvote {
				up++
			} else if in.InteractionType == domain.InteractionDownvote {
				down++
			}
		}
		assert.Equal(t, up, row.Upvotes, row.ID)
		assert.Equal(t, down, row.Downvotes, row.ID)
	}
}

func TestAggregateWithProfiles_ReporterName(t *testing.T) {
	profiles := []models.Profile{
		{ID: "named", FullName: strPtr("Ada Obi"), Email: "ada@example.com"},
		{ID: "email-only", Email: "noname@example.com"},
		{ID: "blank-name", FullName: strPtr(""), Email: "blank@example.com"},
		{ID: "empty"},
	}

	anon := report("anon", "named", domain.StatusReported)
	anon.IsAnonymous = true
	anonMissing := report("anon-missing", "ghost", domain.StatusReported)
	anonMissing.IsAnonymous = true

	tests := []struct {
		name   string
		report models.Report
		want   string
	}{
		{"full name", report("1", "named", domain.StatusReported), "Ada Obi"},
		{"email fallback", report("2", "email-only", domain.StatusReported), "noname@example.com"},
		{"empty full name falls back", report("3", "blank-name", domain.StatusReported), "blank@example.com"},
		{"nothing set", report("4", "empty", domain.StatusReported), domain.ReporterUnknown},
		{"no profile", report("5", "ghost", domain.StatusReported), domain.ReporterUnknown},
		{"anonymous with profile", anon, domain.ReporterAnonymous},
		{"anonymous without profile", anonMissing, domain.ReporterAnonymous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := AggregateWithProfiles([]models.Report{tt.report}, nil, profiles)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0].ReporterName)
		})
	}
}

func TestAggregateWithProfiles_EmptyProfiles(t *testing.T) {
	rows := AggregateWithProfiles([]models.Report{report("a", "u1", domain.StatusReported)}, nil, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ReporterUnknown, rows[0].ReporterName)
}
