package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/Prxnesh/Task-Manager-App/internal/manager"
	"github.com/Prxnesh/Task-Manager-App/internal/models"
	"github.com/Prxnesh/Task-Manager-App/internal/storage"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []tgbotapi.MessageConfig
	delay time.Duration
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()

	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func newTestBot(t *testing.T) (*Bot, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	tasks := manager.NewTaskManager(storage.NewMemoryStorage(), false)
	return New(sender, tasks, nil), sender
}

func TestReplyCommands(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	steps := []struct {
		command string
		args    string
		want    string
	}{
		{"list", "", "The task list is empty."},
		{"add", "Buy milk", "Task added.\nID: #1\nTitle: Buy milk\nPriority: Medium"},
		{"add", "Ship release !high", "Task added.\nID: #2\nTitle: Ship release\nPriority: High"},
		{"add", "", "Give the task after the command: /add Buy milk"},
		{"done", "1", "Task #1 marked completed."},
		{"list", "", "Your tasks:\n[x] #1 Buy milk (Medium)\n[ ] #2 Ship release (High)"},
		{"undone", "#1", "Task #1 marked not completed."},
		{"done", "", "Give the task number: /done 1"},
		{"done", "one", "The task number must be an integer."},
		{"done", "99", "Task #99 not found."},
		{"delete", "2", "Task #2 deleted."},
		{"delete", "2", "Task #2 not found."},
		{"list", "", "Your tasks:\n[ ] #1 Buy milk (Medium)"},
		{"frobnicate", "", "Unknown command. Use /help to see the list of commands."},
	}

	for _, s := range steps {
		if got := b.Reply(ctx, s.command, s.args); got != s.want {
			t.Errorf("/%s %s:\n got %q\nwant %q", s.command, s.args, got, s.want)
		}
	}

	if got := b.Reply(ctx, "help", ""); !strings.Contains(got, "/add <title>") {
		t.Errorf("help text missing commands: %q", got)
	}
}

func TestSplitPriority(t *testing.T) {
	tests := []struct {
		in        string
		wantTitle string
		wantPrio  models.Priority
	}{
		{"Buy milk", "Buy milk", models.PriorityMedium},
		{"Buy milk !low", "Buy milk", models.PriorityLow},
		{"Buy milk !LOW", "Buy milk", models.PriorityLow},
		{"Buy milk !soon", "Buy milk !soon", models.PriorityMedium},
		{"!high", "!high", models.PriorityMedium},
	}

	for _, tt := range tests {
		title, prio := splitPriority(tt.in)
		if title != tt.wantTitle || prio != tt.wantPrio {
			t.Errorf("splitPriority(%q) = %q, %q", tt.in, title, prio)
		}
	}
}

func TestHandleMessagePlainText(t *testing.T) {
	b, sender := newTestBot(t)

	b.HandleMessage(context.Background(), &tgbotapi.Message{
		Text: "Water the plants",
		Chat: &tgbotapi.Chat{ID: 7},
	})

	if len(sender.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(sender.sent))
	}
	reply := sender.sent[0]
	if reply.ChatID != 7 || !strings.Contains(reply.Text, "Title: Water the plants") {
		t.Errorf("unexpected reply: chat=%d text=%q", reply.ChatID, reply.Text)
	}
}

func TestHandleMessageIgnoresEmpty(t *testing.T) {
	b, sender := newTestBot(t)

	b.HandleMessage(context.Background(), &tgbotapi.Message{Text: "   ", Chat: &tgbotapi.Chat{ID: 7}})
	b.HandleMessage(context.Background(), &tgbotapi.Message{Text: "no chat"})

	if len(sender.sent) != 0 {
		t.Errorf("expected no replies, got %d", len(sender.sent))
	}
}

func TestOwnerScoping(t *testing.T) {
	store := storage.NewMemoryStorage()
	ctx := context.Background()
	ownerID, _ := store.InsertUser(ctx, "alice", "h")
	otherID, _ := store.InsertUser(ctx, "bob", "h")

	tasks := manager.NewTaskManager(store, true)
	tasks.AddTask(ctx, models.NewTask{Title: "bob's"}, &models.User{ID: otherID})

	b := New(&fakeSender{}, tasks, &models.User{ID: ownerID, Username: "alice"})
	if got := b.Reply(ctx, "list", ""); got != "The task list is empty." {
		t.Errorf("bot must only see its owner's tasks: %q", got)
	}
	if got := b.Reply(ctx, "delete", "1"); got != "Task #1 not found." {
		t.Errorf("bot must not delete foreign tasks: %q", got)
	}
}

func TestRunStopsOnClosedChannel(t *testing.T) {
	b, _ := newTestBot(t)

	updates := make(chan tgbotapi.Update)
	close(updates)

	done := make(chan struct{})
	go func() {
		b.Run(context.Background(), updates)
		close(done)
	}()
	<-done
}

func TestRunWaitsForHandlers(t *testing.T) {
	sender := &fakeSender{delay: 20 * time.Millisecond}
	b := New(sender, manager.NewTaskManager(storage.NewMemoryStorage(), false), nil)

	const n = 5
	updates := make(chan tgbotapi.Update, n)
	for i := 0; i < n; i++ {
		updates <- tgbotapi.Update{Message: &tgbotapi.Message{
			Text: "task",
			Chat: &tgbotapi.Chat{ID: 7},
		}}
	}
	close(updates)

	b.Run(context.Background(), updates)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != n {
		t.Errorf("Run returned with %d of %d replies sent", len(sender.sent), n)
	}
}
