package rewards

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/berryfarm/backend/internal/ledger"
	"github.com/berryfarm/backend/internal/models"
)

// --- noopTx satisfies pgx.Tx for test use; only Commit/Rollback are called. ---

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

// --- Ledger mock with one-time task membership ---

type taskKey struct {
	account uuid.UUID
	task    string
}

type mockLedger struct {
	mu        sync.Mutex
	balances  map[uuid.UUID]int64
	completed map[taskKey]bool
	entries   []*models.LedgerEntry
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		balances:  make(map[uuid.UUID]int64),
		completed: make(map[taskKey]bool),
	}
}

func (m *mockLedger) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

func (m *mockLedger) Credit(ctx context.Context, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error) {
	return m.CreditTx(ctx, nil, accountID, amountCents, entryType, refID)
}

func (m *mockLedger) CreditTx(_ context.Context, _ pgx.Tx, accountID uuid.UUID, amountCents int64, entryType string, refID *uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[accountID] += amountCents
	m.entries = append(m.entries, &models.LedgerEntry{
		AccountID: accountID, EntryType: entryType, AmountCents: amountCents, RefID: refID,
	})
	return m.balances[accountID], nil
}

func (m *mockLedger) MarkTaskCompleteTx(_ context.Context, _ pgx.Tx, accountID uuid.UUID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := taskKey{account: accountID, task: taskID}
	if m.completed[key] {
		return ledger.ErrAlreadyCompleted
	}
	m.completed[key] = true
	return nil
}

func (m *mockLedger) balance(id uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[id]
}

func testConfig() Config {
	return Config{
		AdRewardMinCents: 100,
		AdRewardMaxCents: 150,
		TaskRewards: map[string]int64{
			models.TaskSubscribeChannel: 10000,
			models.TaskSurveyBerries:    5000,
		},
	}
}

func TestGrantAdReward_WithinRange(t *testing.T) {
	account := uuid.New()
	led := newMockLedger()
	svc := NewService(led, testConfig())
	ctx := context.Background()

	var total int64
	for i := 0; i < 200; i++ {
		before := led.balance(account)
		newBalance, err := svc.GrantAdReward(ctx, account)
		if err != nil {
			t.Fatalf("GrantAdReward: %v", err)
		}
		amount := newBalance - before
		if amount < 100 || amount > 150 {
			t.Fatalf("ad reward out of range: %d", amount)
		}
		total += amount
	}
	if got := led.balance(account); got != total {
		t.Errorf("balance: got %d, want %d", got, total)
	}
}

func TestGrantAdReward_ConcurrentNoLostUpdates(t *testing.T) {
	account := uuid.New()
	led := newMockLedger()
	// Collapse the range so every grant is exactly 100.
	svc := NewService(led, Config{AdRewardMinCents: 100, AdRewardMaxCents: 100})
	ctx := context.Background()

	const grants = 50
	var wg sync.WaitGroup
	for i := 0; i < grants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GrantAdReward(ctx, account); err != nil {
				t.Errorf("GrantAdReward: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := led.balance(account); got != grants*100 {
		t.Errorf("balance after %d concurrent grants: got %d, want %d", grants, got, grants*100)
	}
}

func TestGrantTaskReward_Once(t *testing.T) {
	account := uuid.New()
	led := newMockLedger()
	svc := NewService(led, testConfig())
	ctx := context.Background()

	newBalance, err := svc.GrantTaskReward(ctx, account, models.TaskSubscribeChannel)
	if err != nil {
		t.Fatalf("GrantTaskReward: %v", err)
	}
	if newBalance != 10000 {
		t.Errorf("balance after task: got %d, want 10000", newBalance)
	}

	if _, err := svc.GrantTaskReward(ctx, account, models.TaskSubscribeChannel); !errors.Is(err, ledger.ErrAlreadyCompleted) {
		t.Fatalf("replay: expected ErrAlreadyCompleted, got %v", err)
	}
	if got := led.balance(account); got != 10000 {
		t.Errorf("balance after replay: got %d, want 10000", got)
	}

	// A different task still credits.
	if _, err := svc.GrantTaskReward(ctx, account, models.TaskSurveyBerries); err != nil {
		t.Fatalf("second task: %v", err)
	}
	if got := led.balance(account); got != 15000 {
		t.Errorf("balance after both tasks: got %d, want 15000", got)
	}
}

func TestGrantTaskReward_ConcurrentReplay(t *testing.T) {
	account := uuid.New()
	led := newMockLedger()
	svc := NewService(led, testConfig())
	ctx := context.Background()

	const attempts = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes int
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GrantTaskReward(ctx, account, models.TaskSurveyBerries)
			switch {
			case err == nil:
				mu.Lock()
				successes++
				mu.Unlock()
			case errors.Is(err, ledger.ErrAlreadyCompleted):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successful grants: got %d, want 1", successes)
	}
	if got := led.balance(account); got != 5000 {
		t.Errorf("balance: got %d, want 5000", got)
	}
}

func TestGrantTaskReward_UnknownTask(t *testing.T) {
	led := newMockLedger()
	svc := NewService(led, testConfig())

	if _, err := svc.GrantTaskReward(context.Background(), uuid.New(), "plant_a_tree"); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}
}
