package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/tutorrec/internal/application"
)

func newAppointmentCommand(ctx context.Context, env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appt",
		Aliases: []string{"appointment"},
		Short:   "Book, move and inspect weekly slots.",
	}

	cmd.AddCommand(
		newAppointmentAddCommand(ctx, env),
		newAppointmentEditCommand(ctx, env),
		newAppointmentDeleteCommand(ctx, env),
		newAppointmentListCommand(ctx, env),
		newAppointmentCheckCommand(ctx, env),
	)
	return cmd
}

func newAppointmentAddCommand(ctx context.Context, env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "add PERSON_ID HH:MM-HH:MM DAY",
		Short: "Book a weekly slot for a contact.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot := joinSlot(args[1:])
			updated, err := env.Service.AddAppointment(ctx, args[0], slot)
			if err != nil {
				return describeError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Booked %s for %s\n", slot, updated.Name)
			return nil
		},
	}
}

func newAppointmentEditCommand(ctx context.Context, env Env) *cobra.Command {
	var (
		fromFlag string
		toFlag   string
	)

	cmd := &cobra.Command{
		Use:   "edit PERSON_ID --from SLOT --to SLOT",
		Short: "Move one of a contact's slots.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := env.Service.UpdateAppointment(ctx, application.UpdateAppointmentParams{
				PersonID: args[0],
				Current:  fromFlag,
				Edited:   toFlag,
			})
			if err != nil {
				return describeError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s for %s\n", fromFlag, toFlag, updated.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "Slot currently booked")
	cmd.Flags().StringVar(&toFlag, "to", "", "Slot to book instead")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newAppointmentDeleteCommand(ctx context.Context, env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PERSON_ID HH:MM-HH:MM DAY",
		Short: "Release one of a contact's slots.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot := joinSlot(args[1:])
			updated, err := env.Service.DeleteAppointment(ctx, args[0], slot)
			if err != nil {
				return describeError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Released %s for %s\n", slot, updated.Name)
			return nil
		},
	}
}

func newAppointmentListCommand(ctx context.Context, env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the weekly timetable.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := env.Service.ListAppointments(ctx)
			if err != nil {
				return describeError(err)
			}
			printTimetable(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func newAppointmentCheckCommand(ctx context.Context, env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "check HH:MM-HH:MM DAY",
		Short: "Report whether a slot is free without booking it.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := env.Service.CheckAppointment(ctx, joinSlot(args))
			if err != nil {
				return describeError(err)
			}

			out := cmd.OutOrStdout()
			if result.Available {
				fmt.Fprintf(out, "%s is free\n", result.Slot)
				return nil
			}
			if result.Conflict != nil {
				fmt.Fprintln(out, conflictStyle.Render(fmt.Sprintf("%s clashes with %s held by %s",
					result.Slot, result.Conflict.Slot, result.Conflict.PersonName)))
				return nil
			}
			fmt.Fprintln(out, conflictStyle.Render(fmt.Sprintf("%s is taken", result.Slot)))
			return nil
		},
	}
}
