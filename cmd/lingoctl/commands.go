package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/platform/migrate"
	"github.com/spf13/cobra"
)

func newTodayCmd(e *env) *cobra.Command {
	var module, date string

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print the must-study list",
		Long:  "Print today's must-study list for one module, or for every module when --module is omitted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			day, err := e.day(date)
			if err != nil {
				return err
			}
			b, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, b.Close()) }()

			svc := e.studyService(b)
			var plans []*domain.StudyPlan
			if module != "" {
				plan, err := svc.Today(cmd.Context(), module, day)
				if err != nil {
					return err
				}
				plans = append(plans, plan)
			} else {
				all, err := svc.PlanAll(cmd.Context(), day)
				if err != nil {
					return err
				}
				for _, id := range e.modules.IDs() {
					plans = append(plans, all[id])
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, plan := range plans {
				fmt.Fprintf(w, "%s\t%s\t%d cards\t%d forced\n",
					plan.Module, domain.FormatDate(plan.Date), len(plan.Items), plan.ForcedCount())
				for _, item := range plan.Items {
					tier := "ranked"
					if item.Forced {
						tier = "forced"
					}
					fmt.Fprintf(w, "  %s\t%s\t%g\t%s\n", item.Card.ID, tier, item.Score, item.Card.Title)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&module, "module", "", "module to plan (default all)")
	cmd.Flags().StringVar(&date, "date", "", "day to plan as YYYY-MM-DD (default today)")
	return cmd
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|status|version",
		Short:     "Run database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{migrate.CommandUp, migrate.CommandDown, migrate.CommandStatus, migrate.CommandVersion},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			b, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, b.Close()) }()

			if err := b.Migrate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: ok\n", args[0])
			return nil
		},
	}
}

func newImportCmd(e *env) *cobra.Command {
	var module, file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace a module's cards with the records in a file",
		Long:  "Replace a module's cards with the records in a .json, .yaml, .yml or .xlsx file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			day, err := e.day("")
			if err != nil {
				return err
			}
			b, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, b.Close()) }()

			count, err := e.cardService(b).ImportFile(cmd.Context(), module, file, day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d cards into %s\n", count, module)
			return nil
		},
	}
	cmd.Flags().StringVar(&module, "module", "", "target module")
	cmd.Flags().StringVar(&file, "file", "", "file to import")
	_ = cmd.MarkFlagRequired("module")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newResetCmd(e *env) *cobra.Command {
	var module string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reload a module from its seed file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			day, err := e.day("")
			if err != nil {
				return err
			}
			b, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, b.Close()) }()

			count, err := e.cardService(b).Reset(cmd.Context(), module, day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "module %s reset with %d cards\n", module, count)
			return nil
		},
	}
	cmd.Flags().StringVar(&module, "module", "", "module to reset")
	_ = cmd.MarkFlagRequired("module")
	return cmd
}
