package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/tutorrec/internal/application"
)

type personFlags struct {
	name         string
	phone        string
	email        string
	address      string
	note         string
	tags         []string
	appointments []string
}

func (f *personFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Contact name")
	cmd.Flags().StringVar(&f.phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&f.email, "email", "", "Email address")
	cmd.Flags().StringVar(&f.address, "address", "", "Postal address")
	cmd.Flags().StringVar(&f.note, "note", "", "Free form note")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Tag, repeatable")
	cmd.Flags().StringArrayVar(&f.appointments, "appt", nil, `Weekly slot such as "10:00-11:00 MON", repeatable`)
}

// apply overlays the flags the user actually set onto input.
func (f *personFlags) apply(cmd *cobra.Command, input application.PersonInput) application.PersonInput {
	flags := cmd.Flags()
	if flags.Changed("name") {
		input.Name = f.name
	}
	if flags.Changed("phone") {
		input.Phone = f.phone
	}
	if flags.Changed("email") {
		input.Email = f.email
	}
	if flags.Changed("address") {
		input.Address = f.address
	}
	if flags.Changed("note") {
		input.Note = f.note
	}
	if flags.Changed("tag") {
		input.Tags = f.tags
	}
	if flags.Changed("appt") {
		input.Appointments = f.appointments
	}
	return input
}

func newPersonCommand(ctx context.Context, env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Manage contacts.",
	}

	cmd.AddCommand(
		newPersonAddCommand(ctx, env),
		newPersonEditCommand(ctx, env),
		newPersonDeleteCommand(ctx, env),
		newPersonListCommand(ctx, env),
	)
	return cmd
}

func newPersonAddCommand(ctx context.Context, env Env) *cobra.Command {
	var flags personFlags

	cmd := &cobra.Command{
		Use:   "add --name NAME [--appt SLOT ...]",
		Short: "Add a contact with optional weekly slots.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := env.Service.AddPerson(ctx, flags.apply(cmd, application.PersonInput{}))
			if err != nil {
				return describeError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added %s\n", formatPerson(result.Person))
			if len(result.NearDuplicates) > 0 {
				fmt.Fprintf(out, "Note: looks similar to %s\n", strings.Join(result.NearDuplicates, ", "))
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newPersonEditCommand(ctx context.Context, env Env) *cobra.Command {
	var flags personFlags

	cmd := &cobra.Command{
		Use:   "edit ID [flags]",
		Short: "Change a contact. Only the given flags are changed; --appt replaces all slots.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := env.Service.GetPerson(ctx, args[0])
			if err != nil {
				return describeError(err)
			}

			input := flags.apply(cmd, application.PersonInput{
				Name:         current.Name,
				Phone:        current.Phone,
				Email:        current.Email,
				Address:      current.Address,
				Note:         current.Note,
				Tags:         current.Tags,
				Appointments: current.Appointments,
			})

			updated, err := env.Service.UpdatePerson(ctx, application.UpdatePersonParams{PersonID: current.ID, Input: input})
			if err != nil {
				return describeError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Edited %s\n", formatPerson(updated))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newPersonDeleteCommand(ctx context.Context, env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a contact and release their slots.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := env.Service.GetPerson(ctx, args[0])
			if err != nil {
				return describeError(err)
			}
			if err := env.Service.DeletePerson(ctx, current.ID); err != nil {
				return describeError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", formatPerson(current))
			return nil
		},
	}
}

func newPersonListCommand(ctx context.Context, env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contacts with their slots.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			persons, err := env.Service.ListPersons(ctx)
			if err != nil {
				return describeError(err)
			}
			if len(persons) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No contacts")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(fmt.Sprintf("Contacts (%d)", len(persons))))
			for _, p := range persons {
				printPerson(cmd, p)
			}
			return nil
		},
	}
}
