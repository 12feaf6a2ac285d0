package aggregate

import (
	"civicadmin/internal/domain"
	"civicadmin/internal/models"
	"civicadmin/pkg/location"
)

// Counts summarises rows per status.
type Counts struct {
	Total      int `json:"total"`
	Reported   int `json:"reported"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
}

// FilterByStatus returns the rows whose status equals status. "all" and ""
// return rows unchanged.
func FilterByStatus(rows []models.ReportWithVotes, status string) []models.ReportWithVotes {
	if status == "" || status == domain.StatusAll {
		return rows
	}
	out := make([]models.ReportWithVotes, 0, len(rows))
	for _, r := range rows {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

func FilterByCategory(rows []models.ReportWithVotes, category string) []models.ReportWithVotes {
	if category == "" || category == domain.StatusAll {
		return rows
	}
	out := make([]models.ReportWithVotes, 0, len(rows))
	for _, r := range rows {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// Near keeps rows located within radiusKm of center. Rows without
// coordinates are dropped.
func Near(rows []models.ReportWithVotes, center location.Point, radiusKm float64) []models.ReportWithVotes {
	out := make([]models.ReportWithVotes, 0, len(rows))
	for _, r := range rows {
		if !r.HasLocation() {
			continue
		}
		if location.Distance(center, location.Point{Lat: *r.Latitude, Lng: *r.Longitude}) <= radiusKm {
			out = append(out, r)
		}
	}
	return out
}

func CountByStatus(rows []models.ReportWithVotes) Counts {
	c := Counts{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case domain.StatusReported:
			c.Reported++
		case domain.StatusInProgress:
			c.InProgress++
		case domain.StatusResolved:
			c.Resolved++
		}
	}
	return c
}
