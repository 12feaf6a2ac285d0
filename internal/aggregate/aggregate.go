// Package aggregate joins reports with their vote interactions and reporter
// profiles into dashboard rows.
package aggregate

import (
	"civicadmin/internal/domain"
	"civicadmin/internal/models"
)

type tally struct {
	up, down int
}

// Aggregate returns one row per report, in input order, with vote counts.
// ReporterName is left empty.
func Aggregate(reports []models.Report, interactions []models.Interaction) []models.ReportWithVotes {
	return build(reports, interactions, nil)
}

// AggregateWithProfiles is Aggregate plus reporter name resolution. A report
// flagged anonymous always resolves to "Anonymous"; otherwise the profile's
// full name, then its email, then "Unknown".
func AggregateWithProfiles(reports []models.Report, interactions []models.Interaction, profiles []models.Profile) []models.ReportWithVotes {
	byID := make(map[string]*models.Profile, len(profiles))
	for i := range profiles {
		byID[profiles[i].ID] = &profiles[i]
	}
	return build(reports, interactions, byID)
}

func build(reports []models.Report, interactions []models.Interaction, profiles map[string]*models.Profile) []models.ReportWithVotes {
	votes := make(map[string]tally, len(reports))
	for i := range interactions {
		in := &interactions[i]
		t := votes[in.ReportID]
		switch {
		case in.IsUpvote():
			t.up++
		case in.IsDownvote():
			t.down++
		default:
			continue
		}
		votes[in.ReportID] = t
	}

	rows := make([]models.ReportWithVotes, 0, len(reports))
	for _, r := range reports {
		t := votes[r.ID]
		row := models.ReportWithVotes{
			Report:    r,
			Upvotes:   t.up,
			Downvotes: t.down,
		}
		if profiles != nil {
			row.ReporterName = ReporterName(&r, profiles[r.UserID])
		}
		rows = append(rows, row)
	}
	return rows
}

// ReporterName resolves the display name for a report. p may be nil.
func ReporterName(r *models.Report, p *models.Profile) string {
	if r.IsAnonymous {
		return domain.ReporterAnonymous
	}
	if p == nil {
		return domain.ReporterUnknown
	}
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	if p.Email != "" {
		return p.Email
	}
	return domain.ReporterUnknown
}
