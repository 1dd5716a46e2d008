package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Prxnesh/Task-Manager-App/internal/config"
	"github.com/Prxnesh/Task-Manager-App/internal/manager"
	"github.com/Prxnesh/Task-Manager-App/internal/models"
	"github.com/Prxnesh/Task-Manager-App/internal/storage"
)

var errUsage = errors.New("usage")

func main() {
	global := flag.NewFlagSet("taskctl", flag.ExitOnError)
	configPath := global.String("config", "", "path to config file")
	global.Usage = printHelp
	global.Parse(os.Args[1:])

	if global.NArg() < 1 {
		printHelp()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.InitSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error initialising schema: %v\n", err)
		os.Exit(1)
	}

	// the CLI is an admin tool and sees every task
	tm := manager.NewTaskManager(store, false)

	if err := run(ctx, tm, global.Args(), os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		store.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, tm *manager.TaskManager, args []string, out io.Writer) error {
	command, rest := args[0], args[1:]

	switch command {
	case "add":
		return handleAddCommand(ctx, tm, rest, out)
	case "list":
		return handleListCommand(ctx, tm, rest, out)
	case "complete":
		return handleCompleteCommand(ctx, tm, rest, out)
	case "delete":
		return handleDeleteCommand(ctx, tm, rest, out)
	case "export":
		return handleExportCommand(ctx, tm, rest, out)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printHelp()
		return errUsage
	}
}

func handleAddCommand(ctx context.Context, tm *manager.TaskManager, args []string, out io.Writer) error {
	addCmd := flag.NewFlagSet("add", flag.ContinueOnError)
	title := addCmd.String("title", "", "Task title")
	priority := addCmd.String("priority", "Medium", "Task priority (High|Medium|Low)")
	if err := addCmd.Parse(args); err != nil {
		return errUsage
	}

	req := models.CreateTaskRequest{Title: *title, Priority: priority}
	task, err := req.Validate()
	if err != nil {
		return err
	}

	created, err := tm.AddTask(ctx, task, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Added task with ID %d\n", created.ID)
	return nil
}

func handleListCommand(ctx context.Context, tm *manager.TaskManager, args []string, out io.Writer) error {
	listCmd := flag.NewFlagSet("list", flag.ContinueOnError)
	filter := listCmd.String("filter", "all", "Filter tasks (all|completed|pending)")
	if err := listCmd.Parse(args); err != nil {
		return errUsage
	}

	tasks, err := tm.ListTasks(ctx, nil)
	if err != nil {
		return err
	}

	shown := 0
	for _, task := range tasks {
		if (*filter == "completed" && !task.Completed) || (*filter == "pending" && task.Completed) {
			continue
		}

		status := "Pending"
		if task.Completed {
			status = "Completed"
		}
		fmt.Fprintf(out, "%d: %s [%s] (%s)\n", task.ID, task.Title, status, task.Priority)
		shown++
	}

	if shown == 0 {
		fmt.Fprintln(out, "No tasks found")
	}
	return nil
}

func handleCompleteCommand(ctx context.Context, tm *manager.TaskManager, args []string, out io.Writer) error {
	completeCmd := flag.NewFlagSet("complete", flag.ContinueOnError)
	id := completeCmd.Int64("id", 0, "Task ID to complete")
	undo := completeCmd.Bool("undo", false, "Mark the task as not completed")
	if err := completeCmd.Parse(args); err != nil {
		return errUsage
	}
	if *id == 0 {
		return fmt.Errorf("--id is required")
	}

	found, err := tm.SetCompleted(ctx, *id, !*undo, nil)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(out, "Task %d not found\n", *id)
		return nil
	}

	if *undo {
		fmt.Fprintf(out, "Task %d marked as pending\n", *id)
	} else {
		fmt.Fprintf(out, "Task %d marked as completed\n", *id)
	}
	return nil
}

func handleDeleteCommand(ctx context.Context, tm *manager.TaskManager, args []string, out io.Writer) error {
	deleteCmd := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := deleteCmd.Int64("id", 0, "Task ID to delete")
	if err := deleteCmd.Parse(args); err != nil {
		return errUsage
	}
	if *id == 0 {
		return fmt.Errorf("--id is required")
	}

	found, err := tm.DeleteTask(ctx, *id, nil)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(out, "Task %d not found\n", *id)
		return nil
	}

	fmt.Fprintf(out, "Task %d deleted\n", *id)
	return nil
}

func handleExportCommand(ctx context.Context, tm *manager.TaskManager, args []string, out io.Writer) error {
	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	format := exportCmd.String("format", "json", "Export format (json|csv)")
	if err := exportCmd.Parse(args); err != nil {
		return errUsage
	}

	tasks, err := tm.ListTasks(ctx, nil)
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	case "csv":
		w := csv.NewWriter(out)
		w.Write([]string{"id", "title", "completed", "priority"})
		for _, t := range tasks {
			w.Write([]string{
				strconv.FormatInt(t.ID, 10),
				t.Title,
				strconv.FormatBool(t.Completed),
				string(t.Priority),
			})
		}
		w.Flush()
		return w.Error()
	default:
		return fmt.Errorf("unsupported format %s", *format)
	}
}

func printHelp() {
	fmt.Fprintln(os.Stderr, `Usage: taskctl [--config=FILE] <command> [flags]

Commands:
  add      --title="..." [--priority=High|Medium|Low]  Add new task
  list     [--filter=all|completed|pending]            List tasks
  complete --id=ID [--undo]                            Mark task as completed
  delete   --id=ID                                     Delete task
  export   [--format=json|csv]                         Print all tasks

Storage:
  Tasks live in the store named by the config file or STORAGE_DRIVER/STORAGE_DSN.`)
}
