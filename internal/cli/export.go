package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCommand(ctx context.Context, env Env) *cobra.Command {
	var (
		outFlag  string
		nameFlag string
	)

	cmd := &cobra.Command{
		Use:   "export [--out FILE]",
		Short: "Write the timetable as an iCalendar file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := env.Config.CalendarName
			if cmd.Flags().Changed("name") {
				name = nameFlag
			}

			if outFlag == "" || outFlag == "-" {
				return describeError(env.Service.ExportCalendar(ctx, cmd.OutOrStdout(), name))
			}

			file, err := os.Create(outFlag)
			if err != nil {
				return fmt.Errorf("create %s: %w", outFlag, err)
			}
			if err := env.Service.ExportCalendar(ctx, file, name); err != nil {
				file.Close()
				return describeError(err)
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close %s: %w", outFlag, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported timetable to %s\n", outFlag)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&nameFlag, "name", "", "Calendar display name (default from TUTORREC_CALENDAR_NAME)")
	return cmd
}
