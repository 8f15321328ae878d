package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	for i, action := range []string{"block", "unblock", "allow"} {
		require.NoError(t, s.Append(Event{
			Time:   base.Add(time.Duration(i) * time.Second),
			Action: action,
			Domain: "example.com",
		}))
	}

	events, err := s.Recent(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "allow", events[0].Action)
	assert.Equal(t, "unblock", events[1].Action)

	all, err := s.Recent(10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSameInstantEventsDoNotCollide(t *testing.T) {
	s := openTestStore(t)

	at := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(Event{Time: at, Action: "block"}))
	}

	events, err := s.Recent(10)
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestRecordSyncAction(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Record("pass-1", domain.SyncAction{
		Domain: "work.example.com",
		Kind:   domain.ActionUnblock,
		Reason: "schedule",
	}))

	events, err := s.Recent(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "pass-1", events[0].PassID)
	assert.Equal(t, domain.ActionUnblock.String(), events[0].Action)
	assert.Equal(t, "work.example.com", events[0].Domain)
	assert.Equal(t, "schedule", events[0].Detail)
}

func TestCountByAction(t *testing.T) {
	s := openTestStore(t)

	for _, action := range []string{"block", "block", "unblock"} {
		require.NoError(t, s.Append(Event{Action: action}))
	}

	counts, total, err := s.CountByAction()
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, counts["block"])
	assert.Equal(t, 1, counts["unblock"])
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(Event{Action: "block"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, total, err := s.CountByAction()
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
