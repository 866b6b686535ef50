package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/glosa/internal/timesheet"
)

var hoursJSON bool

// hoursCmd represents the hours command
var hoursCmd = &cobra.Command{
	Use:   "hours",
	Short: "Validate R&D time entries",
}

var hoursValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a sheet of time entries against project vigency and daily limits",
	Long: `Validate replays the entries of a YAML or JSON sheet in order:

  projects:
    - id: p1
      name: Motor de inferência
      start_date: "2024-01-01"
      end_date: "2024-12-31"
      hard_lock_vigency: true
  entries:
    - project_id: p1
      work_date: "2024-03-01"
      hours: 6

Entries outside a hard-locked project's vigency are rejected; the command
exits with an error when any entry is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runHoursValidate,
}

func init() {
	rootCmd.AddCommand(hoursCmd)
	hoursCmd.AddCommand(hoursValidateCmd)

	hoursValidateCmd.Flags().BoolVar(&hoursJSON, "json", false, "print results as JSON")
}

func runHoursValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	sheet, err := timesheet.LoadSheet(args[0])
	if err != nil {
		return err
	}

	validator := timesheet.NewValidator(cfg.Hours.DailyLimit, cfg.Hours.MaxEntry)
	results := validator.ValidateSheet(sheet)

	rejected := 0
	for _, r := range results {
		if !r.Validation.Valid {
			rejected++
		}
	}

	if hoursJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\tDATE\tPROJECT\tHOURS\tMESSAGE")
		for _, r := range results {
			mark := "✓"
			switch {
			case !r.Validation.Valid:
				mark = "✗"
			case r.Validation.Warning != "":
				mark = "⚠"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%s\n", mark, r.Entry.WorkDate, r.Entry.ProjectID, r.Entry.Hours, r.Validation.Warning)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		accepted := make([]timesheet.Entry, 0, len(results))
		for _, r := range results {
			if r.Validation.Valid {
				accepted = append(accepted, r.Entry)
			}
		}
		byProject := timesheet.HoursByProject(accepted)
		ids := make([]string, 0, len(byProject))
		for id := range byProject {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		fmt.Println()
		for _, month := range timesheet.Months(accepted) {
			fmt.Printf("  %-12s %6.1fh\n", month.Format("01/2006"), timesheet.MonthTotal(accepted, month))
		}
		for _, id := range ids {
			fmt.Printf("  %-12s %6.1fh\n", id, byProject[id])
		}
		for _, day := range timesheet.DayTotals(accepted, validator.DailyLimit) {
			if day.OverLimit {
				fmt.Printf("  ⚠ %s: %.1fh\n", day.Date, day.Hours)
			}
		}
	}

	if rejected > 0 {
		return fmt.Errorf("%d of %d entries rejected", rejected, len(results))
	}
	return nil
}
