package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/tutorrec/internal/application"
)

// rosterFile is the YAML document accepted by `tutorrec import`.
type rosterFile struct {
	Persons []rosterPerson `yaml:"persons"`
}

type rosterPerson struct {
	Name         string   `yaml:"name"`
	Phone        string   `yaml:"phone"`
	Email        string   `yaml:"email"`
	Address      string   `yaml:"address"`
	Note         string   `yaml:"note"`
	Tags         []string `yaml:"tags"`
	Appointments []string `yaml:"appointments"`
}

func newImportCommand(ctx context.Context, env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace every contact with those listed in a YAML roster.",
		Long:  "import validates the whole roster first; if any slots clash the current contacts are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read roster: %w", err)
			}

			var roster rosterFile
			if err := yaml.Unmarshal(data, &roster); err != nil {
				return fmt.Errorf("parse roster: %w", err)
			}

			inputs := make([]application.PersonInput, 0, len(roster.Persons))
			for _, p := range roster.Persons {
				inputs = append(inputs, application.PersonInput{
					Name:         p.Name,
					Phone:        p.Phone,
					Email:        p.Email,
					Address:      p.Address,
					Note:         p.Note,
					Tags:         p.Tags,
					Appointments: p.Appointments,
				})
			}

			imported, err := env.Service.ImportPersons(ctx, inputs)
			if err != nil {
				return describeError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d contacts\n", len(imported))
			return nil
		},
	}
}
