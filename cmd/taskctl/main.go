package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/taskdeck/backend/api/transport"
	"github.com/taskdeck/backend/client"
	"github.com/taskdeck/backend/domain"
)

const usage = `taskctl - command line client for the task API

Usage:
  taskctl <command> [flags]

Commands:
  register   create an account and log in
  login      log in with email and password
  logout     forget the stored session
  whoami     show the current account
  list       list your tasks
  show       show one task
  add        create a task
  update     partially update a task
  done       mark a task completed
  rm         delete a task
  activity   show your recent task changes

Environment:
  TASKDECK_URL         API base URL (default http://localhost:5002)
  TASKDECK_TOKEN_FILE  durable token slot (default ~/.config/taskctl/token)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cli, err := newClient()
	if err != nil {
		fail(err)
	}

	if err := dispatch(cli, os.Args[1], os.Args[2:]); err != nil {
		if client.IsUnauthorized(err) {
			fmt.Fprintln(os.Stderr, "session expired, please log in again")
			os.Exit(1)
		}
		fail(err)
	}
}

func newClient() (*client.Client, error) {
	baseURL := os.Getenv("TASKDECK_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5002"
	}

	tokenPath := os.Getenv("TASKDECK_TOKEN_FILE")
	if tokenPath == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		tokenPath = filepath.Join(configDir, "taskctl", "token")
	}

	session, err := client.NewSessionStore(tokenPath)
	if err != nil {
		return nil, err
	}
	return client.New(baseURL, session), nil
}

func dispatch(cli *client.Client, command string, args []string) error {
	switch command {
	case "register":
		return runRegister(cli, args)
	case "login":
		return runLogin(cli, args)
	case "logout":
		return cli.Logout()
	case "whoami":
		return runWhoami(cli)
	case "list":
		return runList(cli)
	case "show":
		return runShow(cli, args)
	case "add":
		return runAdd(cli, args)
	case "update":
		return runUpdate(cli, args)
	case "done":
		return runDone(cli, args)
	case "rm":
		return runRemove(cli, args)
	case "activity":
		return runActivity(cli)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runRegister(cli *client.Client, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	user, err := cli.Register(*username, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("registered as %s <%s>\n", user.Username, user.Email)
	return nil
}

func runLogin(cli *client.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	user, err := cli.Login(*email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s <%s>\n", user.Username, user.Email)
	return nil
}

func runWhoami(cli *client.Client) error {
	if !cli.Session().Authenticated() {
		return fmt.Errorf("not logged in")
	}
	user, err := cli.Me()
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", user.Username, user.Email)
	return nil
}

func runList(cli *client.Client) error {
	tasks, err := cli.Tasks()
	if err != nil {
		return err
	}
	printTasks(tasks)
	return nil
}

func runShow(cli *client.Client, args []string) error {
	id, err := taskID(args)
	if err != nil {
		return err
	}
	task, err := cli.Task(id)
	if err != nil {
		return err
	}
	printTask(task)
	return nil
}

func parseAddFlags(args []string) (transport.TaskCreateRequest, error) {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	title := fs.String("title", "", "task title (required)")
	description := fs.String("description", "", "longer description")
	category := fs.String("category", "", "category (required)")
	priority := fs.String("priority", domain.PriorityMedium, "low, medium or high")
	status := fs.String("status", domain.StatusTodo, "todo, in-progress or completed")
	due := fs.String("due", "", "due date, RFC 3339")
	if err := fs.Parse(args); err != nil {
		return transport.TaskCreateRequest{}, err
	}

	if !domain.ValidPriority(*priority) {
		return transport.TaskCreateRequest{}, fmt.Errorf("priority must be one of low, medium, high")
	}
	if !domain.ValidStatus(*status) {
		return transport.TaskCreateRequest{}, fmt.Errorf("status must be one of todo, in-progress, completed")
	}

	return transport.TaskCreateRequest{
		Title:       *title,
		Description: *description,
		Category:    *category,
		Priority:    *priority,
		Status:      *status,
		DueDate:     *due,
	}, nil
}

func runAdd(cli *client.Client, args []string) error {
	req, err := parseAddFlags(args)
	if err != nil {
		return err
	}

	if _, err := cli.CreateTask(req); err != nil {
		return err
	}

	// Re-fetch rather than trusting local state.
	return runList(cli)
}

// parseUpdateFlags maps only the flags actually supplied onto the request, so
// an omitted flag stays a no-op instead of blanking the field.
func parseUpdateFlags(args []string) (string, transport.TaskUpdateRequest, error) {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	category := fs.String("category", "", "new category")
	priority := fs.String("priority", "", "low, medium or high")
	status := fs.String("status", "", "todo, in-progress or completed")
	due := fs.String("due", "", "new due date, RFC 3339, empty to clear")
	if err := fs.Parse(args); err != nil {
		return "", transport.TaskUpdateRequest{}, err
	}

	id, err := taskID(fs.Args())
	if err != nil {
		return "", transport.TaskUpdateRequest{}, err
	}

	if *priority != "" && !domain.ValidPriority(*priority) {
		return "", transport.TaskUpdateRequest{}, fmt.Errorf("priority must be one of low, medium, high")
	}
	if *status != "" && !domain.ValidStatus(*status) {
		return "", transport.TaskUpdateRequest{}, fmt.Errorf("status must be one of todo, in-progress, completed")
	}

	var req transport.TaskUpdateRequest
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			req.Title = title
		case "description":
			req.Description = description
		case "category":
			req.Category = category
		case "priority":
			req.Priority = priority
		case "status":
			req.Status = status
		case "due":
			req.DueDate = due
		}
	})
	return id, req, nil
}

func runUpdate(cli *client.Client, args []string) error {
	id, req, err := parseUpdateFlags(args)
	if err != nil {
		return err
	}

	if _, err := cli.UpdateTask(id, req); err != nil {
		return err
	}

	task, err := cli.Task(id)
	if err != nil {
		return err
	}
	printTask(task)
	return nil
}

func runDone(cli *client.Client, args []string) error {
	id, err := taskID(args)
	if err != nil {
		return err
	}
	completed := domain.StatusCompleted
	if _, err := cli.UpdateTask(id, transport.TaskUpdateRequest{Status: &completed}); err != nil {
		return err
	}

	task, err := cli.Task(id)
	if err != nil {
		return err
	}
	printTask(task)
	return nil
}

func runRemove(cli *client.Client, args []string) error {
	id, err := taskID(args)
	if err != nil {
		return err
	}
	if err := cli.DeleteTask(id); err != nil {
		return err
	}
	return runList(cli)
}

func runActivity(cli *client.Client) error {
	entries, err := cli.Activity()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tTASK\tTITLE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.At.Format(time.RFC3339), e.Action, e.TaskID, e.Title)
	}
	return w.Flush()
}

func taskID(args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("expected exactly one task id argument")
	}
	return args[0], nil
}

func printTasks(tasks []domain.Task) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tPRIORITY\tSTATUS\tDUE")
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Category, t.Priority, t.Status, due)
	}
	w.Flush()
}

func printTask(t *domain.Task) {
	fmt.Printf("id:       %s\n", t.ID)
	fmt.Printf("title:    %s\n", t.Title)
	if t.Description != "" {
		fmt.Printf("desc:     %s\n", t.Description)
	}
	fmt.Printf("category: %s\n", t.Category)
	fmt.Printf("priority: %s\n", t.Priority)
	fmt.Printf("status:   %s\n", t.Status)
	if t.DueDate != nil {
		fmt.Printf("due:      %s\n", t.DueDate.Format(time.RFC3339))
	}
	fmt.Printf("updated:  %s\n", t.UpdatedAt.Format(time.RFC3339))
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
