package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/Prxnesh/Task-Manager-App/internal/logger"
	"github.com/Prxnesh/Task-Manager-App/internal/models"
)

const helpText = `Commands:
/add <title> [!high|!medium|!low] - add a task
/list - show tasks
/done <id> - mark a task completed
/undone <id> - mark a task not completed
/delete <id> - delete a task
/help - this message

Any other text is added as a task.`

// Sender is the part of tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TaskService interface {
	AddTask(ctx context.Context, task models.NewTask, requester *models.User) (*models.Task, error)
	ListTasks(ctx context.Context, requester *models.User) ([]models.Task, error)
	SetCompleted(ctx context.Context, id int64, completed bool, requester *models.User) (bool, error)
	DeleteTask(ctx context.Context, id int64, requester *models.User) (bool, error)
}

// Bot answers chat commands by calling the task service as owner. owner is
// nil when auth is disabled.
type Bot struct {
	api   Sender
	tasks TaskService
	owner *models.User
}

func New(api Sender, tasks TaskService, owner *models.User) *Bot {
	return &Bot{api: api, tasks: tasks, owner: owner}
}

// Run handles updates until ctx is done or the channel closes. It returns
// only after every in-flight message has been answered.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	logger.Info(ctx, "bot is listening for messages")

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer wg.Done()
				b.HandleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}

	var reply string
	if msg.IsCommand() {
		logger.Debug(ctx, "bot command", "chatID", msg.Chat.ID, "command", msg.Command())
		reply = b.Reply(ctx, msg.Command(), msg.CommandArguments())
	} else if text := strings.TrimSpace(msg.Text); text != "" {
		reply = b.Reply(ctx, "add", text)
	} else {
		return
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		logger.Error(ctx, err, "send telegram message", "chatID", msg.Chat.ID)
	}
}

// Reply executes one command and returns the text to send back.
func (b *Bot) Reply(ctx context.Context, command, args string) string {
	args = strings.TrimSpace(args)

	switch command {
	case "start", "help":
		return helpText
	case "add":
		return b.add(ctx, args)
	case "list":
		return b.list(ctx)
	case "done":
		return b.setCompleted(ctx, args, true)
	case "undone":
		return b.setCompleted(ctx, args, false)
	case "delete":
		return b.delete(ctx, args)
	default:
		return "Unknown command. Use /help to see the list of commands."
	}
}

func (b *Bot) add(ctx context.Context, args string) string {
	if args == "" {
		return "Give the task after the command: /add Buy milk"
	}

	title, priority := splitPriority(args)
	task, err := b.tasks.AddTask(ctx, models.NewTask{Title: title, Priority: priority}, b.owner)
	if err != nil {
		return "Error: " + describe(err)
	}
	return fmt.Sprintf("Task added.\nID: #%d\nTitle: %s\nPriority: %s", task.ID, task.Title, task.Priority)
}

func (b *Bot) list(ctx context.Context) string {
	tasks, err := b.tasks.ListTasks(ctx, b.owner)
	if err != nil {
		return "Error: " + describe(err)
	}
	if len(tasks) == 0 {
		return "The task list is empty."
	}

	var sb strings.Builder
	sb.WriteString("Your tasks:\n")
	for _, t := range tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(&sb, "%s #%d %s (%s)\n", mark, t.ID, t.Title, t.Priority)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) setCompleted(ctx context.Context, args string, completed bool) string {
	command := "done"
	if !completed {
		command = "undone"
	}
	id, usage := parseID(command, args)
	if usage != "" {
		return usage
	}

	found, err := b.tasks.SetCompleted(ctx, id, completed, b.owner)
	if err != nil {
		return "Error: " + describe(err)
	}
	if !found {
		return fmt.Sprintf("Task #%d not found.", id)
	}
	if completed {
		return fmt.Sprintf("Task #%d marked completed.", id)
	}
	return fmt.Sprintf("Task #%d marked not completed.", id)
}

func (b *Bot) delete(ctx context.Context, args string) string {
	id, usage := parseID("delete", args)
	if usage != "" {
		return usage
	}

	found, err := b.tasks.DeleteTask(ctx, id, b.owner)
	if err != nil {
		return "Error: " + describe(err)
	}
	if !found {
		return fmt.Sprintf("Task #%d not found.", id)
	}
	return fmt.Sprintf("Task #%d deleted.", id)
}

// splitPriority takes a trailing "!high"-style marker off the title. An
// unknown marker stays part of the title.
func splitPriority(args string) (string, models.Priority) {
	fields := strings.Fields(args)
	last := fields[len(fields)-1]
	if len(fields) > 1 && strings.HasPrefix(last, "!") {
		if p, err := models.ParsePriority(last[1:]); err == nil {
			return strings.Join(fields[:len(fields)-1], " "), p
		}
	}
	return args, models.PriorityMedium
}

// parseID returns the id or, when args is unusable, the reply to send.
func parseID(command, args string) (int64, string) {
	if args == "" {
		return 0, fmt.Sprintf("Give the task number: /%s 1", command)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args, "#"), 10, 64)
	if err != nil {
		return 0, "The task number must be an integer."
	}
	return id, ""
}

func describe(err error) string {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return "something went wrong, try again later"
}
