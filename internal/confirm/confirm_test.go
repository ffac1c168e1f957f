// ABOUTME: Tests for the confirmation lifecycle and its TTL behavior.
// ABOUTME: Exactly-once confirm, idempotent execute bookkeeping, lazy expiry purge.

package confirm

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func managerAt(start time.Time) (*Manager, *time.Time) {
	clock := start
	m := NewManager(0, nil)
	m.now = func() time.Time { return clock }
	return m, &clock
}

func TestConfirmThenExecute(t *testing.T) {
	m, _ := managerAt(time.Now())

	c := m.Create(1, 5, "email", "send an email", []string{"gmail"})
	require.NotEmpty(t, c.ID)
	assert.False(t, c.Confirmed)

	confirmed, ok := m.Confirm(c.ID)
	require.True(t, ok)
	assert.True(t, confirmed.Confirmed)

	executed, ok := m.ExecuteConfirmed(c.ID)
	require.True(t, ok)
	assert.True(t, executed.Executed)
}

func TestConfirm_SucceedsExactlyOnce(t *testing.T) {
	m, _ := managerAt(time.Now())
	c := m.Create(1, 5, "email", "send an email", []string{"gmail"})

	_, first := m.Confirm(c.ID)
	_, second := m.Confirm(c.ID)
	assert.True(t, first)
	assert.False(t, second)
}

func TestExecuteConfirmed_RepeatIsIdempotent(t *testing.T) {
	m, _ := managerAt(time.Now())
	c := m.Create(1, 5, "email", "send an email", []string{"gmail"})
	m.Confirm(c.ID)

	first, ok := m.ExecuteConfirmed(c.ID)
	require.True(t, ok)
	assert.True(t, first.Executed)

	// A repeat returns the already-executed entry without a second flip.
	second, ok := m.ExecuteConfirmed(c.ID)
	require.True(t, ok)
	assert.True(t, second.Executed)
}

func TestExecuteConfirmed_RequiresConfirmation(t *testing.T) {
	m, _ := managerAt(time.Now())
	c := m.Create(1, 5, "email", "send an email", []string{"gmail"})

	_, ok := m.ExecuteConfirmed(c.ID)
	assert.False(t, ok)
}

func TestConfirm_ExpiredEntryReturnsNone(t *testing.T) {
	m, clock := managerAt(time.Now())
	c := m.Create(1, 5, "email", "send an email", []string{"gmail"})

	*clock = clock.Add(301 * time.Second)

	_, ok := m.Confirm(c.ID)
	assert.False(t, ok)

	// The purge removed the entry entirely.
	_, found := m.Get(c.ID)
	assert.False(t, found)
}

func TestConfirm_JustInsideWindow(t *testing.T) {
	m, clock := managerAt(time.Now())
	c := m.Create(1, 5, "email", "send an email", []string{"gmail"})

	*clock = clock.Add(299 * time.Second)

	_, ok := m.Confirm(c.ID)
	assert.True(t, ok)
}

func TestCancel_RemovesEntry(t *testing.T) {
	m, _ := managerAt(time.Now())
	c := m.Create(1, 5, "email", "send an email", []string{"gmail"})

	cancelled, ok := m.Cancel(c.ID)
	require.True(t, ok)
	assert.Equal(t, c.ID, cancelled.ID)

	_, ok = m.Cancel(c.ID)
	assert.False(t, ok)
	_, found := m.Get(c.ID)
	assert.False(t, found)
}

func TestConfirm_UnknownID(t *testing.T) {
	m, _ := managerAt(time.Now())
	_, ok := m.Confirm("does-not-exist")
	assert.False(t, ok)
}

func TestListForUserAndChat(t *testing.T) {
	m, clock := managerAt(time.Now())

	first := m.Create(1, 5, "email", "first", []string{"gmail"})
	*clock = clock.Add(time.Second)
	second := m.Create(1, 6, "calendar", "second", []string{"google_calendar"})
	m.Create(2, 5, "email", "other user", []string{"gmail"})

	forUser := m.ListForUser(1)
	require.Len(t, forUser, 2)
	assert.Equal(t, first.ID, forUser[0].ID)
	assert.Equal(t, second.ID, forUser[1].ID)

	forChat := m.ListForChat(5)
	require.Len(t, forChat, 2)
}

func TestConcurrentConfirm_SingleWinner(t *testing.T) {
	m, _ := managerAt(time.Now())
	c := m.Create(1, 5, "email", "send an email", []string{"gmail"})

	const goroutines = 16
	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := m.Confirm(c.ID); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestMessages_Deterministic(t *testing.T) {
	m, _ := managerAt(time.Now())
	c := m.Create(1, 5, "file_operations", "list my google drive files", []string{"google_drive"})

	request := RequestMessage(c)
	assert.Contains(t, request, "Action Confirmation Required")
	assert.Contains(t, request, "File Operations")
	assert.Contains(t, request, c.ID)
	assert.Contains(t, request, "confirm "+c.ID)
	assert.Contains(t, request, "cancel "+c.ID)
	assert.Equal(t, request, RequestMessage(c))

	assert.Contains(t, ExecutingMessage(c), "Executing Action")
	assert.Contains(t, CancelledMessage(c), "Action Cancelled")
	assert.Contains(t, ExpiredMessage(c), "Confirmation Expired")
}

func TestRequestMessage_TruncatesLongOriginal(t *testing.T) {
	m, _ := managerAt(time.Now())
	long := ""
	for i := 0; i < 30; i++ {
		long += "send email "
	}
	c := m.Create(1, 5, "email", long, []string{"gmail"})

	msg := RequestMessage(c)
	assert.Contains(t, msg, "...")
}

func TestCancel_ExpiredButUnsweptEntryStillDeletes(t *testing.T) {
	m, clock := managerAt(time.Now())
	c := m.Create(1, 5, "email", "send an email", []string{"gmail"})

	// Past expiry, but no read has swept the entry yet. Cancel is a
	// delete-if-present, so it finds and removes it.
	*clock = clock.Add(301 * time.Second)

	cancelled, ok := m.Cancel(c.ID)
	require.True(t, ok)
	assert.Equal(t, c.ID, cancelled.ID)

	_, found := m.Get(c.ID)
	assert.False(t, found)
}
