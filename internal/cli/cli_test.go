package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/tutorrec/internal/application"
	"github.com/example/tutorrec/internal/config"
	"github.com/example/tutorrec/internal/testfixtures"
)

func newTestEnv(t *testing.T) Env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ids := testfixtures.NewIDGenerator("person")
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	return Env{
		Config:  config.Default(),
		Logger:  logger,
		Service: application.NewAddressBookServiceWithLogger(nil, ids.Next, clock.Now, logger),
	}
}

func run(t *testing.T, env Env, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand(context.Background(), env)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, env Env, args ...string) string {
	t.Helper()

	out, err := run(t, env, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestPersonCommands(t *testing.T) {
	env := newTestEnv(t)

	out := mustRun(t, env, "person", "add", "--name", "Alex Yeoh", "--phone", "87438807", "--tag", "sec3", "--appt", "10:00-11:00 MON")
	if !strings.Contains(out, "Added Alex Yeoh [person-1] 87438807 (#sec3)") {
		t.Fatalf("unexpected output: %q", out)
	}

	out = mustRun(t, env, "person", "add", "--name", "Alex")
	if !strings.Contains(out, "looks similar to Alex Yeoh") {
		t.Fatalf("expected near duplicate note, got %q", out)
	}

	out = mustRun(t, env, "person", "edit", "person-2", "--name", "Bernice Yu", "--appt", "11:00-12:00 MON")
	if !strings.Contains(out, "Edited Bernice Yu [person-2]") {
		t.Fatalf("unexpected output: %q", out)
	}

	// Only --note changes; the slot is kept.
	mustRun(t, env, "person", "edit", "person-1", "--note", "prefers mornings")
	alex, err := env.Service.GetPerson(context.Background(), "person-1")
	if err != nil {
		t.Fatalf("GetPerson: %v", err)
	}
	if alex.Note != "prefers mornings" || len(alex.Appointments) != 1 {
		t.Fatalf("unexpected person after edit: %+v", alex)
	}

	out = mustRun(t, env, "person", "list")
	for _, want := range []string{"Contacts (2)", "Alex Yeoh", "  10:00-11:00 MON", "Bernice Yu", "  11:00-12:00 MON"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in list output:\n%s", want, out)
		}
	}

	out = mustRun(t, env, "person", "delete", "person-2")
	if !strings.Contains(out, "Deleted Bernice Yu") {
		t.Fatalf("unexpected output: %q", out)
	}

	if _, err := run(t, env, "person", "delete", "person-2"); err == nil || !strings.Contains(err.Error(), "no such person") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestPersonAddRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := run(t, env, "person", "add", "--name", "", "--appt", "9:00-10:00 MON")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "name: name is required") || !strings.Contains(msg, "appointments: Appointment should be of the format") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestAppointmentCommands(t *testing.T) {
	env := newTestEnv(t)
	mustRun(t, env, "person", "add", "--name", "Alice", "--appt", "13:30-14:00 SUN")
	mustRun(t, env, "person", "add", "--name", "Bob")

	out := mustRun(t, env, "appt", "add", "person-2", "10:00-11:00", "mon")
	if !strings.Contains(out, "Booked 10:00-11:00 mon for Bob") {
		t.Fatalf("unexpected output: %q", out)
	}

	_, err := run(t, env, "appt", "add", "person-1", "10:30-11:30 MON")
	if err == nil || !strings.Contains(err.Error(), "overlaps with 10:00-11:00 MON held by Bob") {
		t.Fatalf("expected overlap error, got %v", err)
	}

	out = mustRun(t, env, "appt", "check", "10:59-11:30", "MON")
	if !strings.Contains(out, "10:59-11:30 MON clashes with 10:00-11:00 MON held by Bob") {
		t.Fatalf("unexpected output: %q", out)
	}
	out = mustRun(t, env, "appt", "check", "11:00-12:00 MON")
	if !strings.Contains(out, "11:00-12:00 MON is free") {
		t.Fatalf("unexpected output: %q", out)
	}

	mustRun(t, env, "appt", "edit", "person-2", "--from", "10:00-11:00 MON", "--to", "08:00-09:00 MON")

	out = mustRun(t, env, "appt", "list")
	monday := strings.Index(out, "MON")
	sunday := strings.Index(out, "SUN")
	if monday < 0 || sunday < 0 || monday > sunday {
		t.Fatalf("expected MON before SUN:\n%s", out)
	}
	if !strings.Contains(out, "08:00-09:00 Bob") || !strings.Contains(out, "13:30-14:00 Alice") {
		t.Fatalf("unexpected timetable:\n%s", out)
	}

	out = mustRun(t, env, "appt", "delete", "person-2", "08:00-09:00 MON")
	if !strings.Contains(out, "Released 08:00-09:00 MON for Bob") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestExportCommand(t *testing.T) {
	env := newTestEnv(t)
	mustRun(t, env, "person", "add", "--name", "Alice", "--appt", "08:00-09:30 MON")

	path := filepath.Join(t.TempDir(), "timetable.ics")
	out := mustRun(t, env, "export", "--out", path, "--name", "Term 1")
	if !strings.Contains(out, "Exported timetable to "+path) {
		t.Fatalf("unexpected output: %q", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, want := range []string{"BEGIN:VCALENDAR", "SUMMARY:Alice", "BYDAY=MO", "Term 1"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %q in export:\n%s", want, data)
		}
	}

	stdout := mustRun(t, env, "export")
	if !strings.Contains(stdout, "BEGIN:VCALENDAR") {
		t.Fatalf("expected calendar on stdout, got %q", stdout)
	}
}

func TestImportCommand(t *testing.T) {
	env := newTestEnv(t)
	mustRun(t, env, "person", "add", "--name", "Old Contact")

	dir := t.TempDir()
	good := filepath.Join(dir, "roster.yaml")
	writeRoster(t, good, `
persons:
  - name: Alice
    tags: [sec3]
    appointments: ["10:00-11:00 MON"]
  - name: Bob
    appointments: ["11:00-12:00 MON", "13:30-14:00 SUN"]
`)
	out := mustRun(t, env, "import", good)
	if !strings.Contains(out, "Imported 2 contacts") {
		t.Fatalf("unexpected output: %q", out)
	}

	clash := filepath.Join(dir, "clash.yaml")
	writeRoster(t, clash, `
persons:
  - name: Carl
    appointments: ["10:00-11:00 TUE"]
  - name: Dana
    appointments: ["10:00-11:00 TUE"]
`)
	if _, err := run(t, env, "import", clash); err == nil {
		t.Fatalf("expected clash to be rejected")
	}

	persons, err := env.Service.ListPersons(context.Background())
	if err != nil {
		t.Fatalf("ListPersons: %v", err)
	}
	if len(persons) != 2 || persons[0].Name != "Alice" || persons[1].Name != "Bob" {
		t.Fatalf("expected imported roster to remain, got %+v", persons)
	}

	broken := filepath.Join(dir, "broken.yaml")
	writeRoster(t, broken, "persons: [")
	if _, err := run(t, env, "import", broken); err == nil || !strings.Contains(err.Error(), "parse roster") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestServeHandler(t *testing.T) {
	env := newTestEnv(t)
	mustRun(t, env, "person", "add", "--name", "Alice", "--appt", "10:00-11:00 MON")

	recorder := httptest.NewRecorder()
	newHandler(env).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/appointments", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"person_name":"Alice"`) {
		t.Fatalf("unexpected body %s", recorder.Body.String())
	}
}

func TestServeHandlerLimitsWrites(t *testing.T) {
	env := newTestEnv(t)
	env.Config.RateLimitRPS = 0.001
	env.Config.RateLimitBurst = 1
	handler := newHandler(env)

	check := func() int {
		recorder := httptest.NewRecorder()
		body := strings.NewReader(`{"slot":"10:00-11:00 MON"}`)
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/appointments/check", body))
		return recorder.Code
	}

	if code := check(); code != http.StatusOK {
		t.Fatalf("expected first check to pass, got %d", code)
	}
	if code := check(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second check to be limited, got %d", code)
	}
}

func TestRunServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, server, slog.New(slog.NewTextHandler(io.Discard, nil))) }()
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("runServer: %v", err)
	}
}

func writeRoster(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.TrimLeft(content, "\n")), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
