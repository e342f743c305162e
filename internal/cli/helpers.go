package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/example/tutorrec/internal/application"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	dayStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// joinSlot rebuilds a slot split by the shell, so both
// `10:00-11:00 MON` and `"10:00-11:00 MON"` are accepted.
func joinSlot(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func formatPerson(p application.Person) string {
	builder := strings.Builder{}
	builder.WriteString(p.Name)
	builder.WriteString(" [")
	builder.WriteString(p.ID)
	builder.WriteString("]")

	if p.Phone != "" {
		builder.WriteString(" ")
		builder.WriteString(p.Phone)
	}
	if len(p.Tags) > 0 {
		builder.WriteString(" (")
		for i, tag := range p.Tags {
			if i > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString("#")
			builder.WriteString(tag)
		}
		builder.WriteString(")")
	}
	return builder.String()
}

func printPerson(cmd *cobra.Command, p application.Person) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, formatPerson(p))
	if len(p.Appointments) == 0 {
		fmt.Fprintln(out, "  (no appointments)")
		return
	}
	for _, slot := range p.Appointments {
		fmt.Fprintf(out, "  %s\n", slot)
	}
}

// printTimetable groups entries under a header per weekday.
func printTimetable(out io.Writer, entries []application.AppointmentEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No appointments booked")
		return
	}

	fmt.Fprintln(out, headerStyle.Render("Timetable"))
	currentDay := ""
	for _, entry := range entries {
		if entry.Day != currentDay {
			currentDay = entry.Day
			fmt.Fprintln(out, dayStyle.Render(currentDay))
		}
		fmt.Fprintf(out, "  %s-%s %s\n", entry.Start, entry.End, entry.PersonName)
	}
}

// describeError renders service errors for terminal users.
func describeError(err error) error {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) && vErr.HasErrors() {
		fields := make([]string, 0, len(vErr.FieldErrors))
		for field := range vErr.FieldErrors {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		lines := make([]string, 0, len(fields))
		for _, field := range fields {
			lines = append(lines, fmt.Sprintf("%s: %s", field, vErr.FieldErrors[field]))
		}
		return fmt.Errorf("invalid input\n%s", strings.Join(lines, "\n"))
	}

	var conflict *application.ConflictError
	if errors.As(err, &conflict) {
		return errors.New(conflictStyle.Render(conflict.Error()))
	}
	if errors.Is(err, application.ErrNotFound) {
		return errors.New("no such person or appointment")
	}
	return err
}
