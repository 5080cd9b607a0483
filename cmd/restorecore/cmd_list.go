package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"restorecore/internal/core"
)

var (
	listStatus  string
	listType    string
	listSearch  string
	listProject string
	listRole    string
	listWindow  string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the dashboard rollup",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		d := core.BuildDashboard(svc.Store().Snapshot(), time.Now().UTC())
		fmt.Printf("Projects:        %d (%d active)\n", d.TotalProjects, d.ActiveProjects)
		fmt.Printf("Monitoring:      %d points, %d observations\n", d.MonitoringPoints, d.TotalObservations)
		fmt.Printf("Milestones:      %d pending, %d overdue\n", d.PendingActions, d.OverdueActions)
		fmt.Printf("Team:            %d members (%d active)\n", d.TeamMembers, d.ActiveTeamMembers)
		if len(d.RecentActivities) > 0 {
			fmt.Println("Recent activity:")
			for _, a := range d.RecentActivities {
				fmt.Printf("  %s  %-22s %s\n", a.Date.Format("2006-01-02"), a.Type, a.Description)
			}
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:       "list {projects|points|observations|members|activities}",
	Short:     "List records with optional filters",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"projects", "points", "observations", "members", "activities"},
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		snapshot := svc.Store().Snapshot()
		switch args[0] {
		case "projects":
			for _, p := range core.FilterProjects(snapshot.Projects, core.ProjectFilter{Status: listStatus, Type: listType, Search: listSearch}) {
				fmt.Printf("%-38s %-30s %-12s %s\n", p.ID, p.Name, p.Status, p.Type)
			}
		case "points":
			for _, p := range core.FilterMonitoringPoints(snapshot.MonitoringPoints, core.PointFilter{ProjectID: listProject, Search: listSearch}) {
				fmt.Printf("%-38s %-30s %-14s project=%s observations=%d\n", p.ID, p.Name, p.Type, p.ProjectID, len(p.Observations))
			}
		case "observations":
			entries := core.FlattenObservations(snapshot.MonitoringPoints)
			filtered := core.FilterObservations(entries, core.ObservationFilter{
				ProjectID: listProject,
				Window:    core.ObservationWindow(listWindow),
			})
			for _, e := range filtered {
				fmt.Printf("%s  %-30s %s\n", e.Date, e.PointName, e.Notes)
			}
		case "members":
			for _, m := range core.FilterTeamMembers(snapshot.TeamMembers, core.MemberFilter{Role: listRole, Search: listSearch}) {
				fmt.Printf("%-38s %-24s %-18s %-10s projects=%d\n", m.ID, m.Name, m.Role, m.Status, len(m.ProjectIDs))
			}
		case "activities":
			for _, a := range snapshot.Activities {
				fmt.Printf("%s  %-22s %s\n", a.Date.Format("2006-01-02 15:04"), a.Type, a.Description)
			}
		default:
			return fmt.Errorf("unknown listing %q", args[0])
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "all", "project status filter")
	listCmd.Flags().StringVar(&listType, "type", "all", "project type filter")
	listCmd.Flags().StringVar(&listSearch, "search", "", "case-insensitive text filter")
	listCmd.Flags().StringVar(&listProject, "project", "all", "project id filter")
	listCmd.Flags().StringVar(&listRole, "role", "all", "team role filter")
	listCmd.Flags().StringVar(&listWindow, "window", "all", "observation window: all|today|week|month")

	rootCmd.AddCommand(summaryCmd, listCmd)
}
