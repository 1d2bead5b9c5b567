package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"siterelay/internal/models"
)

type fakeBackend struct {
	mu        sync.Mutex
	calls     int
	histories [][]models.Turn
	replyErr  error
}

func (b *fakeBackend) Reply(ctx context.Context, history []models.Turn) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.replyErr != nil {
		return "", b.replyErr
	}
	b.calls++
	snapshot := make([]models.Turn, len(history))
	copy(snapshot, history)
	b.histories = append(b.histories, snapshot)
	return fmt.Sprintf("reply-%d", b.calls), nil
}

func (b *fakeBackend) lastHistory() []models.Turn {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.histories) == 0 {
		return nil
	}
	return b.histories[len(b.histories)-1]
}

func newTestManager(backend Backend) *Manager {
	return NewManager(backend, NewMemoryStore(0), time.Second)
}

func TestSendMessageAppendsBothTurns(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestManager(backend)
	ctx := context.Background()

	reply, err := m.SendMessage(ctx, "s1", "hi")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if reply != "reply-1" {
		t.Fatalf("unexpected reply %q", reply)
	}

	history, err := m.store.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 turns after one exchange, got %d", len(history))
	}
	if history[0].Role != models.RoleUser || history[0].Text != "hi" {
		t.Fatalf("unexpected user turn: %#v", history[0])
	}
	if history[1].Role != models.RoleAssistant || history[1].Text != "reply-1" {
		t.Fatalf("unexpected assistant turn: %#v", history[1])
	}
}

func TestResetDropsPriorTurns(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestManager(backend)
	ctx := context.Background()

	if _, err := m.SendMessage(ctx, "s1", "hi"); err != nil {
		t.Fatalf("first SendMessage: %v", err)
	}
	if err := m.Reset(ctx, "s1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := m.SendMessage(ctx, "s1", "hello"); err != nil {
		t.Fatalf("second SendMessage: %v", err)
	}

	last := backend.lastHistory()
	if len(last) != 1 {
		t.Fatalf("backend received %d turns after reset, want 1: %#v", len(last), last)
	}
	if last[0].Text != "hello" {
		t.Fatalf("backend received stale turn %q", last[0].Text)
	}
}

func TestBackendErrorSurfaces(t *testing.T) {
	backend := &fakeBackend{replyErr: errors.New("backend down")}
	m := newTestManager(backend)

	if _, err := m.SendMessage(context.Background(), "s1", "hi"); err == nil {
		t.Fatalf("expected backend error to surface")
	}
}

func TestSendMessageValidation(t *testing.T) {
	m := newTestManager(&fakeBackend{})
	if _, err := m.SendMessage(context.Background(), "s1", "   "); err == nil {
		t.Fatalf("expected error for blank message")
	}
	if _, err := m.SendMessage(context.Background(), "", "hi"); err == nil {
		t.Fatalf("expected error for missing session id")
	}
}

// Serialized exchanges on one session must never lose an acknowledged
// turn: each backend call sees every turn of every completed exchange
// plus exactly one new user turn.
func TestConcurrentSendsSameSessionSerialize(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestManager(backend)

	const senders = 16
	var wg sync.WaitGroup
	errs := make(chan error, senders)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.SendMessage(context.Background(), "shared", fmt.Sprintf("msg-%d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("SendMessage: %v", err)
	}

	if backend.calls != senders {
		t.Fatalf("expected %d backend calls, got %d", senders, backend.calls)
	}
	for i, history := range backend.histories {
		want := 2*i + 1
		if len(history) != want {
			t.Fatalf("call %d saw %d turns, want %d (history interleaved)", i+1, len(history), want)
		}
	}
}

func TestDistinctSessionsIndependent(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestManager(backend)
	ctx := context.Background()

	if _, err := m.SendMessage(ctx, "a", "from-a"); err != nil {
		t.Fatalf("SendMessage a: %v", err)
	}
	if _, err := m.SendMessage(ctx, "b", "from-b"); err != nil {
		t.Fatalf("SendMessage b: %v", err)
	}

	historyA, _ := m.store.History(ctx, "a")
	historyB, _ := m.store.History(ctx, "b")
	if len(historyA) != 2 || len(historyB) != 2 {
		t.Fatalf("session histories bled: a=%d b=%d", len(historyA), len(historyB))
	}
	if historyA[0].Text != "from-a" || historyB[0].Text != "from-b" {
		t.Fatalf("cross-session contamination: %#v / %#v", historyA[0], historyB[0])
	}
}

func TestResetUnseenSessionIsNoError(t *testing.T) {
	m := newTestManager(&fakeBackend{})
	if err := m.Reset(context.Background(), "never-seen"); err != nil {
		t.Fatalf("Reset unseen session: %v", err)
	}
}
