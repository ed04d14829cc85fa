package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"eventadmin-client-go/internal/models"
	"eventadmin-client-go/internal/query"
	"eventadmin-client-go/internal/services"
)

const usage = `usage: eventadmin <command> [args]

  login -email <email> -password <password>
  logout
  whoami
  users list [-search s] [-page n] [-size n] [-sort field] [-desc] [-filter k=v]
  users get -id <id>
  users create -first <name> -last <name> -gender <g> [-email e]
  users update -id <id> [-first n] [-last n] [-email e] [-delete-files id,id]
  users delete -id <id>
  users export [-id <id>]
  admins list [-search s] [-page n]
  events list [-page n] [-size n]
  events get -id <id> [-attendee-page n] [-attendee-search s]
  events create -name <n> [-description d] [-location l] [-start t] [-end t]
  events update -id <id> -name <n> [-description d] [-location l] [-start t] [-end t]
  events delete -id <id>
  events status -id <id> -status <upcoming|ongoing|completed|cancelled>
  events export -id <id>
  attendees add -event <id> -users <id,id,...>
  attendees remove -event <id> -users <id,id,...>
  files list -user <id>
  files upload -user <id> <path> [path...]
  files delete -user <id> -ids <id,id,...>
  files download -user <id> -file <id> [-out path]
  logs list [-page n]
  stats spheres -event <id>
`

func (a *app) run(args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}
	ctx := context.Background()
	switch args[0] {
	case "login":
		return a.cmdLogin(ctx, args[1:])
	case "logout":
		return a.session.Logout(ctx)
	case "whoami":
		return a.cmdWhoami(ctx)
	case "users":
		return a.cmdUsers(ctx, args[1:])
	case "admins":
		return a.cmdAdmins(ctx, args[1:])
	case "events":
		return a.cmdEvents(ctx, args[1:])
	case "attendees":
		return a.cmdAttendees(ctx, args[1:])
	case "files":
		return a.cmdFiles(ctx, args[1:])
	case "logs":
		return a.cmdLogs(ctx, args[1:])
	case "stats":
		return a.cmdStats(ctx, args[1:])
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// requireUser bootstraps the persisted session before an authenticated
// command runs.
func (a *app) requireUser(ctx context.Context) (*models.User, error) {
	if user := a.session.CurrentUser(); user != nil {
		return user, nil
	}
	if user := a.session.Bootstrap(ctx); user != nil {
		return user, nil
	}
	return nil, fmt.Errorf("not logged in, run: eventadmin login")
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Welcome %s (%s)\n", user.FullName(), user.Role)
	return nil
}

func (a *app) cmdWhoami(ctx context.Context) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s  role=%s  active=%v\n", user.FullName(), user.Role, user.IsActive)
	return nil
}

func (a *app) cmdUsers(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("users: missing subcommand")
	}
	switch args[0] {
	case "list":
		return a.listUsers(ctx, a.users, args[1:])
	case "get":
		return a.getUser(ctx, args[1:])
	case "create":
		return a.createUser(ctx, args[1:])
	case "update":
		return a.updateUser(ctx, args[1:])
	case "delete":
		return a.deleteUser(ctx, args[1:])
	case "export":
		return a.exportUsers(ctx, args[1:])
	default:
		return fmt.Errorf("users: unknown subcommand %q", args[0])
	}
}

func (a *app) cmdAdmins(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "list" {
		return fmt.Errorf("admins: expected list")
	}
	return a.listUsers(ctx, a.admins, args[1:])
}

func (a *app) listUsers(ctx context.Context, svc *services.Users, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	search := fs.String("search", "", "search term")
	pageIdx := fs.Int("page", 0, "zero-based page index")
	size := fs.Int("size", a.cfg.DefaultPageSize, "page size")
	sortField := fs.String("sort", "", "sort field")
	desc := fs.Bool("desc", false, "sort descending")
	filter := fs.String("filter", "", "extra filter as k=v")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	p := query.NewParams(*size)
	if *search != "" {
		p.SetSearch(*search)
	}
	if *filter != "" {
		name, value, ok := strings.Cut(*filter, "=")
		if !ok {
			return fmt.Errorf("bad -filter, want k=v")
		}
		p.SetFilter(name, value)
	}
	if *sortField != "" {
		p.SetSort(*sortField, *desc)
	}
	p.SetPage(*pageIdx)
	page, err := svc.List(ctx, p)
	if err != nil {
		return err
	}
	for _, user := range page.Data {
		fmt.Printf("%-6s %-28s %-12s active=%v\n", user.ID, user.FullName(), user.Role, user.IsActive)
	}
	fmt.Printf("page %d/%d, %d total, more=%v\n", page.CurrentPage, page.LastPage, page.Total, page.HasMore())
	return nil
}

func (a *app) getUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	id := fs.String("id", "", "user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	user, err := a.users.Get(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s  role=%s active=%v files=%d\n", user.ID, user.FullName(), user.Role, user.IsActive, len(user.UserFiles))
	return nil
}

func (a *app) createUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	gender := fs.String("gender", "", "gender")
	email := fs.String("email", "", "email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	input := services.UserInput{Fields: map[string]string{
		"first_name": *first,
		"last_name":  *last,
		"gender":     *gender,
	}}
	if *email != "" {
		input.Fields["email"] = *email
	}
	user, err := a.users.Create(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("created user %s (%s)\n", user.ID, user.FullName())
	return nil
}

func (a *app) updateUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	id := fs.String("id", "", "user id")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	email := fs.String("email", "", "email")
	deleteFiles := fs.String("delete-files", "", "comma-separated file ids to remove")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	input := services.UserInput{Fields: map[string]string{}}
	for name, value := range map[string]string{
		"first_name": *first,
		"last_name":  *last,
		"email":      *email,
	} {
		if value != "" {
			input.Fields[name] = value
		}
	}
	if *deleteFiles != "" {
		ids, err := parseIDs(*deleteFiles)
		if err != nil {
			return err
		}
		input.DeleteFileIDs = ids
	}
	user, err := a.users.Update(ctx, *id, input)
	if err != nil {
		return err
	}
	fmt.Printf("updated user %s (%s)\n", user.ID, user.FullName())
	return nil
}

func (a *app) deleteUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.String("id", "", "user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	actor, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	// Surface gating only; the server is the authority.
	if actor.Role != models.RoleSuperAdmin {
		return fmt.Errorf("only super admins can delete users")
	}
	target, err := a.users.Get(ctx, *id)
	if err != nil {
		return err
	}
	if !target.IsActive {
		return fmt.Errorf("inactive users cannot be deleted")
	}
	if !a.confirm(fmt.Sprintf("delete user %s (%s)?", target.ID, target.FullName())) {
		fmt.Println("aborted")
		return nil
	}
	if err := a.users.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Println("deleted")
	return nil
}

func (a *app) exportUsers(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	id := fs.String("id", "", "export one user instead of the roster")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	if *id != "" {
		b, name, err := a.exports.UserInfo(ctx, *id)
		if err != nil {
			return err
		}
		return saveBlob(name, b.Data)
	}
	b, name, err := a.exports.UsersWithEventCount(ctx)
	if err != nil {
		return err
	}
	return saveBlob(name, b.Data)
}

func (a *app) cmdEvents(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("events: missing subcommand")
	}
	switch args[0] {
	case "list":
		return a.listEvents(ctx, args[1:])
	case "get":
		return a.getEvent(ctx, args[1:])
	case "create":
		return a.createEvent(ctx, args[1:])
	case "update":
		return a.updateEvent(ctx, args[1:])
	case "delete":
		return a.deleteEvent(ctx, args[1:])
	case "status":
		return a.changeEventStatus(ctx, args[1:])
	case "export":
		return a.exportAttendees(ctx, args[1:])
	default:
		return fmt.Errorf("events: unknown subcommand %q", args[0])
	}
}

func (a *app) listEvents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	pageIdx := fs.Int("page", 0, "zero-based page index")
	size := fs.Int("size", a.cfg.DefaultPageSize, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	p := query.NewParams(*size)
	p.SetPage(*pageIdx)
	page, err := a.events.List(ctx, p)
	if err != nil {
		return err
	}
	for _, event := range page.Data {
		fmt.Printf("%-4d %-28s %-10s attendees=%d attended=%d\n", event.ID, event.Name, event.Status, event.UsersCount, event.AttendedCount)
	}
	fmt.Printf("page %d/%d, %d total\n", page.CurrentPage, page.LastPage, page.Total)
	return nil
}

func (a *app) getEvent(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	id := fs.Int("id", 0, "event id")
	attendeePage := fs.Int("attendee-page", 1, "attendee page")
	attendeeSearch := fs.String("attendee-search", "", "attendee search")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	event, err := a.events.Get(ctx, *id, services.AttendeeQuery{
		Page:    *attendeePage,
		PerPage: a.cfg.DefaultPageSize,
		Search:  *attendeeSearch,
	})
	if err != nil {
		return err
	}
	fmt.Printf("%d %s [%s] @ %s\n", event.ID, event.Name, event.Status, event.Location)
	if event.Users != nil {
		for _, user := range event.Users.Data {
			fmt.Printf("  - %s %s\n", user.ID, user.FullName())
		}
		fmt.Printf("attendees page %d/%d of %d\n", event.Users.CurrentPage, event.Users.LastPage, event.Users.Total)
	}
	return nil
}

func (a *app) createEvent(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	name := fs.String("name", "", "event name")
	description := fs.String("description", "", "description")
	location := fs.String("location", "", "location")
	start := fs.String("start", "", "start time (RFC3339)")
	end := fs.String("end", "", "end time (RFC3339)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	event, err := a.events.Create(ctx, services.EventInput{
		Name:        *name,
		Description: *description,
		Location:    *location,
		StartTime:   *start,
		EndTime:     *end,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created event %d (%s)\n", event.ID, event.Name)
	return nil
}

func (a *app) updateEvent(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	id := fs.Int("id", 0, "event id")
	name := fs.String("name", "", "event name")
	description := fs.String("description", "", "description")
	location := fs.String("location", "", "location")
	start := fs.String("start", "", "start time (RFC3339)")
	end := fs.String("end", "", "end time (RFC3339)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	event, err := a.events.Update(ctx, *id, services.EventInput{
		Name:        *name,
		Description: *description,
		Location:    *location,
		StartTime:   *start,
		EndTime:     *end,
	})
	if err != nil {
		return err
	}
	fmt.Printf("updated event %d (%s)\n", event.ID, event.Name)
	return nil
}

func (a *app) deleteEvent(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.Int("id", 0, "event id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	if !a.confirm(fmt.Sprintf("delete event %d?", *id)) {
		fmt.Println("aborted")
		return nil
	}
	if err := a.events.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Println("deleted")
	return nil
}

func (a *app) changeEventStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	id := fs.Int("id", 0, "event id")
	status := fs.String("status", "", "new status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	change, err := a.events.ChangeStatus(ctx, *id, *status)
	if err != nil {
		fmt.Printf("status change %s failed, view restored\n", change.OperationID)
		return err
	}
	fmt.Printf("status change %s: event %d is now %s\n", change.OperationID, change.EventID, change.Status)
	return nil
}

func (a *app) exportAttendees(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	id := fs.Int("id", 0, "event id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	blob, name, err := a.exports.EventAttendees(ctx, *id)
	if err != nil {
		return err
	}
	return saveBlob(name, blob.Data)
}

func (a *app) cmdAttendees(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("attendees: missing subcommand")
	}
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	event := fs.Int("event", 0, "event id")
	users := fs.String("users", "", "comma-separated user ids")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	ids, err := parseIDs(*users)
	if err != nil {
		return err
	}
	switch args[0] {
	case "add":
		result, err := a.events.AttachUsers(ctx, *event, ids)
		if err != nil {
			return err
		}
		fmt.Printf("%s: attempted=%d newly_attached=%d already_attached=%d roster=%d\n",
			result.Message, result.Stats.TotalAttempted, result.Stats.NewlyAttached,
			result.Stats.AlreadyAttached, result.Stats.TotalAttendees)
	case "remove":
		result, err := a.events.DetachUsers(ctx, *event, ids)
		if err != nil {
			return err
		}
		fmt.Printf("%s: attempted=%d detached=%d not_attached=%d roster=%d\n",
			result.Message, result.Stats.TotalAttempted, result.Stats.ActuallyDetached,
			result.Stats.NotAttached, result.Stats.TotalAttendees)
	default:
		return fmt.Errorf("attendees: unknown subcommand %q", args[0])
	}
	return nil
}

func (a *app) cmdFiles(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("files: missing subcommand")
	}
	switch args[0] {
	case "list":
		return a.listFiles(ctx, args[1:])
	case "upload":
		return a.uploadFiles(ctx, args[1:])
	case "delete":
		return a.deleteFiles(ctx, args[1:])
	case "download":
		return a.downloadFile(ctx, args[1:])
	default:
		return fmt.Errorf("files: unknown subcommand %q", args[0])
	}
}

func (a *app) listFiles(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	user := fs.String("user", "", "user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	files, err := a.files.List(ctx, *user)
	if err != nil {
		return err
	}
	for _, file := range files {
		fmt.Printf("%-6d %-32s %-24s %8dB by %s\n", file.ID, file.FileName, file.FileType, file.FileSize, file.UploadedBy)
	}
	fmt.Printf("%d files\n", len(files))
	return nil
}

func (a *app) uploadFiles(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	user := fs.String("user", "", "user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return fmt.Errorf("files upload: no paths given")
	}
	uploads := make([]services.Upload, 0, len(paths))
	handles := make([]*os.File, 0, len(paths))
	defer func() {
		for _, handle := range handles {
			_ = handle.Close()
		}
	}()
	for _, path := range paths {
		handle, err := os.Open(path)
		if err != nil {
			return err
		}
		handles = append(handles, handle)
		uploads = append(uploads, services.Upload{Name: filepath.Base(path), Content: handle})
	}
	if err := a.files.Upload(ctx, *user, uploads); err != nil {
		return err
	}
	fmt.Printf("uploaded %d files\n", len(uploads))
	return nil
}

func (a *app) deleteFiles(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	user := fs.String("user", "", "user id")
	idsArg := fs.String("ids", "", "comma-separated file ids")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	ids, err := parseIDs(*idsArg)
	if err != nil {
		return err
	}
	if !a.confirm(fmt.Sprintf("delete %d files?", len(ids))) {
		fmt.Println("aborted")
		return nil
	}
	if len(ids) == 1 {
		if err := a.files.Delete(ctx, *user, ids[0]); err != nil {
			return err
		}
	} else if err := a.files.BulkDelete(ctx, *user, ids); err != nil {
		return err
	}
	fmt.Println("deleted")
	return nil
}

func (a *app) downloadFile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	user := fs.String("user", "", "user id")
	file := fs.Int("file", 0, "file id")
	out := fs.String("out", "", "output path (defaults to the server-suggested name)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	fallback := fmt.Sprintf("file_%d", *file)
	blob, name, err := a.files.Download(ctx, *user, *file, fallback)
	if err != nil {
		return err
	}
	if *out != "" {
		name = *out
	}
	return saveBlob(name, blob.Data)
}

func (a *app) cmdLogs(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	pageIdx := fs.Int("page", 0, "zero-based page index")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	p := query.NewParams(a.cfg.DefaultPageSize)
	p.SetPage(*pageIdx)
	page, err := a.logs.List(ctx, p)
	if err != nil {
		return err
	}
	for _, entry := range page.Data {
		actor := "?"
		if entry.Admin != nil {
			actor = entry.Admin.Name
		}
		fmt.Printf("%-20s %-12s %s#%d by %s %s\n", entry.CreatedAt, entry.Action, entry.ModelType, entry.ModelID, actor, describeValues(entry.NewValues))
	}
	fmt.Printf("page %d/%d, %d total\n", page.CurrentPage, page.LastPage, page.Total)
	return nil
}

// describeValues reads only the fields valid for the payload shape present.
func describeValues(values *models.LogValues) string {
	if values == nil {
		return ""
	}
	switch values.Kind {
	case models.LogValuesLogin:
		return "last_login_at=" + values.Login.LastLoginAt
	case models.LogValuesFileUpload:
		return "file=" + values.FileUpload.FileName
	case models.LogValuesFileRecord:
		return fmt.Sprintf("file=%s (%dB)", values.FileRecord.FileName, values.FileRecord.FileSize)
	}
	return ""
}

func (a *app) cmdStats(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "spheres" {
		return fmt.Errorf("stats: expected spheres")
	}
	fs := flag.NewFlagSet("spheres", flag.ContinueOnError)
	event := fs.Int("event", 0, "event id")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	resp, err := a.stats.SphereStats(ctx, *event)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d attendees across %d spheres\n", resp.EventName, resp.TotalUsers, resp.Summary.TotalSpheresRepresented)
	for _, stat := range resp.SphereStats {
		fmt.Printf("  %-24s %4d (%.1f%%)\n", stat.SphereName, stat.UserCount, stat.Percentage)
	}
	return nil
}

func (a *app) confirm(prompt string) bool {
	if !a.cfg.ConfirmDeletes {
		return true
	}
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func parseIDs(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no ids given")
	}
	return ids, nil
}

func saveBlob(name string, data []byte) error {
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("saved %s (%d bytes)\n", name, len(data))
	return nil
}
