package core

import (
	"sort"
	"strings"
	"time"
)

// Filter values use the zero string (or "all") to mean "no constraint";
// multiple set fields compose with AND.

// ProjectFilter narrows a project listing.
type ProjectFilter struct {
	Status string // project status, "" or "all" matches everything
	Type   string // project type, "" or "all" matches everything
	Search string // case-insensitive substring over name, location name, description
}

// FilterProjects returns the projects matching every set constraint, in
// stored order.
func FilterProjects(projects []Project, f ProjectFilter) []Project {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	var out []Project
	for _, p := range projects {
		if !matchesChoice(string(p.Status), f.Status) {
			continue
		}
		if !matchesChoice(string(p.Type), f.Type) {
			continue
		}
		if needle != "" && !containsFold(needle, p.Name, p.Location.Name, p.Description) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// PointFilter narrows a monitoring point listing.
type PointFilter struct {
	ProjectID string // "" or "all" matches everything
	Search    string // case-insensitive substring over the point name
}

// FilterMonitoringPoints returns the points matching every set
// constraint, in stored order.
func FilterMonitoringPoints(points []MonitoringPoint, f PointFilter) []MonitoringPoint {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	var out []MonitoringPoint
	for _, p := range points {
		if !matchesChoice(p.ProjectID, f.ProjectID) {
			continue
		}
		if needle != "" && !containsFold(needle, p.Name) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// MemberFilter narrows a team member listing.
type MemberFilter struct {
	Role   string // "" or "all" matches everything
	Search string // case-insensitive substring over name or email
}

// FilterTeamMembers returns the members matching every set constraint,
// in stored order.
func FilterTeamMembers(members []TeamMember, f MemberFilter) []TeamMember {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	var out []TeamMember
	for _, m := range members {
		if !matchesChoice(string(m.Role), f.Role) {
			continue
		}
		if needle != "" && !containsFold(needle, m.Name, m.Email) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ObservationWindow selects a trailing time range for observations.
type ObservationWindow string

// Supported observation windows.
const (
	WindowAll   ObservationWindow = "all"
	WindowToday ObservationWindow = "today" // same calendar day as now
	WindowWeek  ObservationWindow = "week"  // the trailing seven days
	WindowMonth ObservationWindow = "month" // the trailing calendar month
)

// ObservationEntry is an observation flattened out of its point with
// enough ownership context to display standalone.
type ObservationEntry struct {
	Observation
	PointID   string
	PointName string
	ProjectID string
}

// FlattenObservations lifts every observation out of its point, keeping
// point order then observation order.
func FlattenObservations(points []MonitoringPoint) []ObservationEntry {
	var out []ObservationEntry
	for _, p := range points {
		for _, o := range p.Observations {
			out = append(out, ObservationEntry{Observation: o, PointID: p.ID, PointName: p.Name, ProjectID: p.ProjectID})
		}
	}
	return out
}

// ObservationFilter narrows a flattened observation listing.
type ObservationFilter struct {
	ProjectID string            // "" or "all" matches everything
	Window    ObservationWindow // "" or WindowAll matches everything
	Now       time.Time         // reference time for windows; zero means time.Now
}

// FilterObservations returns the entries matching every set constraint,
// sorted by date descending. Ties keep their flattened order. Entries
// with unparseable dates only survive the unwindowed filter.
func FilterObservations(entries []ObservationEntry, f ObservationFilter) []ObservationEntry {
	now := f.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	var out []ObservationEntry
	for _, e := range entries {
		if !matchesChoice(e.ProjectID, f.ProjectID) {
			continue
		}
		if !inWindow(e.Date, f.Window, now) {
			continue
		}
		out = append(out, e)
	}
	// ISO dates compare lexically in chronological order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func inWindow(date string, window ObservationWindow, now time.Time) bool {
	if window == "" || window == WindowAll {
		return true
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	switch window {
	case WindowToday:
		y1, m1, d1 := t.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case WindowWeek:
		return !t.Before(now.AddDate(0, 0, -7)) && !t.After(now)
	case WindowMonth:
		return !t.Before(now.AddDate(0, -1, 0)) && !t.After(now)
	default:
		return false
	}
}

// matchesChoice treats "" and "all" as wildcards.
func matchesChoice(value, want string) bool {
	return want == "" || want == "all" || value == want
}

func containsFold(needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
