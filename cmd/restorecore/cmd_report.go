package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"restorecore/internal/core"
)

var (
	reportType    string
	reportProject string
	reportStart   string
	reportEnd     string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a project rollup report",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		report, err := core.BuildReport(svc.Store().Snapshot(), core.ReportOptions{
			Type:      core.ReportType(reportType),
			ProjectID: reportProject,
			StartDate: reportStart,
			EndDate:   reportEnd,
		}, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Println(report.Title)
		fmt.Printf("Report Type: %s\n", report.Type)
		fmt.Printf("Generated: %s\n", report.GeneratedAt.Format("2006-01-02"))
		if report.ProjectName != "" {
			fmt.Printf("Project: %s\n", report.ProjectName)
		}
		if report.DateRange != "" {
			fmt.Printf("Date Range: %s\n", report.DateRange)
		}
		fmt.Println()
		for _, line := range report.Lines {
			fmt.Println("- " + line)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show chart datasets and store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		snapshot := svc.Store().Snapshot()
		now := time.Now().UTC()

		fmt.Println("Projects by status:")
		for _, b := range core.StatusDistribution(snapshot.Projects) {
			fmt.Printf("  %-12s %d\n", b.Label, b.Count)
		}
		fmt.Println("Projects by type:")
		for _, b := range core.TypeDistribution(snapshot.Projects) {
			fmt.Printf("  %-12s %d\n", b.Label, b.Count)
		}
		fmt.Println("Project starts by month:")
		for _, b := range core.TimelineHistogram(snapshot.Projects) {
			fmt.Printf("  %s  %d\n", b.Label, b.Count)
		}
		fmt.Println("Observations, trailing six months:")
		for _, b := range core.ObservationFrequency(snapshot.MonitoringPoints, now) {
			fmt.Printf("  %s  %d\n", b.Label, b.Count)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportType, "type", "summary", "report type: summary|progress|monitoring|full")
	reportCmd.Flags().StringVar(&reportProject, "project", "", "restrict to one project id")
	reportCmd.Flags().StringVar(&reportStart, "start", "", "report range start (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportEnd, "end", "", "report range end (YYYY-MM-DD)")

	rootCmd.AddCommand(reportCmd, statsCmd)
}
