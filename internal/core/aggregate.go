package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"restorecore/pkg/domain"
)

// Dashboard is the rollup of counters shown on the landing view.
type Dashboard struct {
	TotalProjects     int        `json:"totalProjects"`
	ActiveProjects    int        `json:"activeProjects"`
	MonitoringPoints  int        `json:"monitoringPoints"`
	TotalObservations int        `json:"totalObservations"`
	PendingActions    int        `json:"pendingActions"` // incomplete milestones
	OverdueActions    int        `json:"overdueActions"` // incomplete milestones dated before now
	TeamMembers       int        `json:"teamMembers"`
	ActiveTeamMembers int        `json:"activeTeamMembers"`
	RecentActivities  []Activity `json:"recentActivities"` // at most five, most recent first
}

// BuildDashboard computes the dashboard rollup from a snapshot. Milestone
// dates are compared against now; an unparseable date counts as pending
// but never overdue.
func BuildDashboard(snapshot Snapshot, now time.Time) Dashboard {
	d := Dashboard{
		TotalProjects:    len(snapshot.Projects),
		MonitoringPoints: len(snapshot.MonitoringPoints),
		TeamMembers:      len(snapshot.TeamMembers),
	}
	for _, p := range snapshot.Projects {
		if p.Status == domain.StatusActive {
			d.ActiveProjects++
		}
		for _, m := range p.Milestones {
			if m.Completed {
				continue
			}
			d.PendingActions++
			if due, err := time.Parse("2006-01-02", m.Date); err == nil && due.Before(now) {
				d.OverdueActions++
			}
		}
	}
	for _, pt := range snapshot.MonitoringPoints {
		d.TotalObservations += len(pt.Observations)
	}
	for _, m := range snapshot.TeamMembers {
		if m.Status == domain.MemberActive {
			d.ActiveTeamMembers++
		}
	}
	recent := snapshot.Activities
	if len(recent) > 5 {
		recent = recent[:5]
	}
	d.RecentActivities = append([]Activity(nil), recent...)
	return d
}

// CountBucket pairs a label with a count in chart datasets.
type CountBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// StatusDistribution counts projects per lifecycle status in the fixed
// chart order, including zero buckets.
func StatusDistribution(projects []Project) []CountBucket {
	order := []domain.ProjectStatus{
		domain.StatusActive, domain.StatusPlanned, domain.StatusCompleted, domain.StatusOnHold,
	}
	counts := make(map[domain.ProjectStatus]int)
	for _, p := range projects {
		counts[p.Status]++
	}
	out := make([]CountBucket, 0, len(order))
	for _, st := range order {
		out = append(out, CountBucket{Label: string(st), Count: counts[st]})
	}
	return out
}

// TypeDistribution counts projects per restoration type in order of first
// appearance, labels title-cased on the first letter.
func TypeDistribution(projects []Project) []CountBucket {
	index := make(map[domain.ProjectType]int)
	var out []CountBucket
	for _, p := range projects {
		if i, ok := index[p.Type]; ok {
			out[i].Count++
			continue
		}
		index[p.Type] = len(out)
		out = append(out, CountBucket{Label: titleFirst(string(p.Type)), Count: 1})
	}
	return out
}

// TimelineHistogram counts project starts per YYYY-MM month, ascending.
// Months with no starts are absent.
func TimelineHistogram(projects []Project) []CountBucket {
	counts := make(map[string]int)
	for _, p := range projects {
		if len(p.StartDate) < 7 {
			continue
		}
		counts[p.StartDate[:7]]++
	}
	months := make([]string, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Strings(months)
	out := make([]CountBucket, 0, len(months))
	for _, m := range months {
		out = append(out, CountBucket{Label: m, Count: counts[m]})
	}
	return out
}

// ObservationFrequency counts observations per month over the six
// calendar months ending at now, zero-filled, ascending.
func ObservationFrequency(points []MonitoringPoint, now time.Time) []CountBucket {
	counts := make(map[string]int)
	for _, pt := range points {
		for _, o := range pt.Observations {
			if len(o.Date) < 7 {
				continue
			}
			counts[o.Date[:7]]++
		}
	}
	// Anchor at the first of the current month; stepping back from a
	// month-end date would normalize across short months and skip or
	// double buckets.
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]CountBucket, 0, 6)
	for i := 5; i >= 0; i-- {
		month := anchor.AddDate(0, -i, 0).Format("2006-01")
		out = append(out, CountBucket{Label: month, Count: counts[month]})
	}
	return out
}

// ReportType selects a report rollup.
type ReportType string

// Supported report types.
const (
	ReportSummary    ReportType = "summary"    // one line per project: name and status
	ReportProgress   ReportType = "progress"   // milestone completion percentage per project
	ReportMonitoring ReportType = "monitoring" // observation counts per point
	ReportFull       ReportType = "full"       // per-project detail block
)

// ReportOptions parameterize report generation. ProjectID empty means
// all projects. The date range, when both ends are set, is echoed in the
// header; it does not filter the rollup.
type ReportOptions struct {
	Type      ReportType
	ProjectID string
	StartDate string
	EndDate   string
}

// Report is a generated rollup ready for rendering.
type Report struct {
	Title       string     `json:"title"`
	Type        ReportType `json:"type"`
	GeneratedAt time.Time  `json:"generatedAt"`
	ProjectName string     `json:"projectName,omitempty"`
	DateRange   string     `json:"dateRange,omitempty"`
	Lines       []string   `json:"lines"`
}

// BuildReport assembles the requested rollup from a snapshot.
func BuildReport(snapshot Snapshot, opts ReportOptions, now time.Time) (Report, error) {
	r := Report{
		Title:       "Ecological Restoration Project Report",
		Type:        opts.Type,
		GeneratedAt: now,
	}
	if opts.ProjectID != "" {
		found := false
		for _, p := range snapshot.Projects {
			if p.ID == opts.ProjectID {
				r.ProjectName = p.Name
				found = true
				break
			}
		}
		if !found {
			return Report{}, domain.NotFoundError{Entity: domain.EntityProject, ID: opts.ProjectID}
		}
	}
	if opts.StartDate != "" && opts.EndDate != "" {
		r.DateRange = opts.StartDate + " to " + opts.EndDate
	}

	include := func(projectID string) bool {
		return opts.ProjectID == "" || projectID == opts.ProjectID
	}
	switch opts.Type {
	case ReportSummary:
		for _, p := range snapshot.Projects {
			if include(p.ID) {
				r.Lines = append(r.Lines, fmt.Sprintf("%s: %s", p.Name, p.Status))
			}
		}
	case ReportProgress:
		for _, p := range snapshot.Projects {
			if !include(p.ID) {
				continue
			}
			r.Lines = append(r.Lines, fmt.Sprintf("%s: %d%% complete", p.Name, milestoneProgress(p)))
		}
	case ReportMonitoring:
		names := make(map[string]string, len(snapshot.Projects))
		for _, p := range snapshot.Projects {
			names[p.ID] = p.Name
		}
		for _, pt := range snapshot.MonitoringPoints {
			if !include(pt.ProjectID) {
				continue
			}
			project := names[pt.ProjectID]
			if project == "" {
				project = "Unknown"
			}
			r.Lines = append(r.Lines, fmt.Sprintf("%s (%s): %d observations", pt.Name, project, len(pt.Observations)))
		}
	case ReportFull:
		for _, p := range snapshot.Projects {
			if !include(p.ID) {
				continue
			}
			r.Lines = append(r.Lines,
				"Project: "+p.Name,
				"Status: "+string(p.Status),
				"Type: "+string(p.Type),
				"Location: "+p.Location.Name,
			)
		}
	default:
		return Report{}, fmt.Errorf("unknown report type %q", opts.Type)
	}
	return r, nil
}

// milestoneProgress is the completed share of a project's milestones,
// rounded to the nearest percent; a project with no milestones is 0.
func milestoneProgress(p Project) int {
	if len(p.Milestones) == 0 {
		return 0
	}
	completed := 0
	for _, m := range p.Milestones {
		if m.Completed {
			completed++
		}
	}
	return int(float64(completed)/float64(len(p.Milestones))*100 + 0.5)
}

func titleFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
