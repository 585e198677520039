package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/mt5recon/store"
)

var incidentsCmd = &cobra.Command{
	Use:   "incidents",
	Short: "Query the reset-incident audit trail",
	Long: `Query and display incident records from the local database.

Subcommands:
  today  - List incidents detected today
  day    - List incidents detected on a specific day

Examples:
  mt5recon incidents today
  mt5recon incidents day 2024-03-01`,
}

var incidentsTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List incidents detected today",
	Args:  cobra.NoArgs,
	RunE:  runIncidentsToday,
}

var incidentsDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List incidents detected on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runIncidentsDay,
}

func init() {
	rootCmd.AddCommand(incidentsCmd)
	incidentsCmd.AddCommand(incidentsTodayCmd)
	incidentsCmd.AddCommand(incidentsDayCmd)
}

func runIncidentsToday(cmd *cobra.Command, args []string) error {
	loc := time.Local
	return printIncidentsForDay(time.Now().In(loc).Format("2006-01-02"), loc)
}

func runIncidentsDay(cmd *cobra.Command, args []string) error {
	return printIncidentsForDay(args[0], time.Local)
}

func printIncidentsForDay(day string, loc *time.Location) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.NewSQLite(cfg.Store.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	start, end, err := dayBounds(loc, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	incidents, err := st.ListIncidentsBetween(start, end)
	if err != nil {
		return fmt.Errorf("query incidents: %w", err)
	}

	fmt.Println(store.FormatIncidents(incidents))
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24 * time.Hour)
	return start, end, nil
}
