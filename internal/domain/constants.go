package domain

const (
	RoleAdmin = "admin"
	// RoleServiceRole is the role carried by backend service keys.
	RoleServiceRole = "service_role"
)

const (
	StatusReported   = "reported"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
)

// StatusAll is the filter value that disables status filtering.
const StatusAll = "all"

const (
	CategoryPothole     = "pothole"
	CategoryGarbage     = "garbage"
	CategoryStreetlight = "streetlight"
	CategoryDrainage    = "drainage"
	CategoryWater       = "water"
	CategoryNoise       = "noise"
)

const (
	InteractionUpvote   = "upvote"
	InteractionDownvote = "downvote"
)

const (
	ReporterAnonymous = "Anonymous"
	ReporterUnknown   = "Unknown"
)

// Statuses lists every report status in lifecycle order.
var Statuses = []string{StatusReported, StatusInProgress, StatusResolved}

var Categories = []string{
	CategoryPothole,
	CategoryGarbage,
	CategoryStreetlight,
	CategoryDrainage,
	CategoryWater,
	CategoryNoise,
}

func IsValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// SearchRadiusKm are the radius choices offered by the map filter, smallest
// first. Requests may use any radius up to the largest.
var SearchRadiusKm = []float64{1, 3, 5, 10, 25}

const DefaultSearchRadiusKm = 5.0

func MaxSearchRadiusKm() float64 {
	return SearchRadiusKm[len(SearchRadiusKm)-1]
}

// StatusLabel is the human-readable form of a status.
func StatusLabel(s string) string {
	switch s {
	case StatusReported:
		return "Reported"
	case StatusInProgress:
		return "In Progress"
	case StatusResolved:
		return "Resolved"
	}
	return s
}
