// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privarion/privariond/internal/clock"
	"github.com/privarion/privariond/internal/state"
)

type fakeReinstater struct {
	calls []struct{ kind, value string }
	fail  bool
}

func (f *fakeReinstater) Reinstate(kind, value string) error {
	if f.fail {
		return assert.AnError
	}
	f.calls = append(f.calls, struct{ kind, value string }{kind, value})
	return nil
}

func newTestStore(t *testing.T, clk clock.Clock) *Store {
	t.Helper()
	st, err := state.NewFileStore(t.TempDir())
	require.NoError(t, err)
	s, err := NewStore(st, clk, time.Hour)
	require.NoError(t, err)
	return s
}

func TestCreateBackupAndRestore(t *testing.T) {
	s := newTestStore(t, clock.Real)

	id, err := s.CreateBackup("hostname", "Alpha.local", "s1")
	require.NoError(t, err)

	r := &fakeReinstater{}
	restored, err := s.RestoreFromBackup(id, r)
	require.NoError(t, err)
	assert.Equal(t, "Alpha.local", restored.OriginalValue)
	require.Len(t, r.calls, 1)
	assert.Equal(t, "Alpha.local", r.calls[0].value)
}

func TestSessionLifecycleAndPersistentDeleteGuard(t *testing.T) {
	s := newTestStore(t, clock.Real)

	sessionID, err := s.StartSession("spoof-run", true)
	require.NoError(t, err)

	_, err = s.StartSession("another", false)
	assert.Error(t, err, "only one session may be open at a time")

	backupID, err := s.AddBackup("hostname", "Alpha.local", nil)
	require.NoError(t, err)

	require.NoError(t, s.CompleteSession())

	sessions, err := s.ListBackups()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, sessionID, sessions[0].ID)
	assert.Contains(t, sessions[0].BackupIDs, backupID)

	err = s.DeleteSession(sessionID, false)
	assert.Error(t, err, "persistent session requires forcePersistent")

	require.NoError(t, s.DeleteSession(sessionID, true))
	sessions, err = s.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestCleanupRespectsRetentionAndPersistence(t *testing.T) {
	frozen := clock.NewFrozen(time.Now())
	s := newTestStore(t, frozen)
	s.retention = time.Hour

	_, err := s.StartSession("transient", false)
	require.NoError(t, err)
	_, err = s.AddBackup("macAddress", "aa:bb:cc:dd:ee:ff", nil)
	require.NoError(t, err)
	require.NoError(t, s.CompleteSession())

	_, err = s.StartSession("kept-forever", true)
	require.NoError(t, err)
	_, err = s.AddBackup("serialNumber", "SN123", nil)
	require.NoError(t, err)
	require.NoError(t, s.CompleteSession())

	frozen.Advance(2 * time.Hour)

	deleted, err := s.Cleanup(true)
	require.NoError(t, err)
	assert.Len(t, deleted, 1, "only the non-persistent session's backup is eligible")

	deleted, err = s.Cleanup(false)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)

	deleted, err = s.Cleanup(false)
	require.NoError(t, err)
	assert.Empty(t, deleted, "cleanup must be idempotent")
}

func TestRestoreFailureLeavesBackupIntact(t *testing.T) {
	s := newTestStore(t, clock.Real)
	id, err := s.CreateBackup("hostname", "Alpha.local", "s1")
	require.NoError(t, err)

	_, err = s.RestoreFromBackup(id, &fakeReinstater{fail: true})
	assert.Error(t, err)

	b, err := s.getBackup(id)
	require.NoError(t, err, "backup must still exist after a failed restore")
	assert.Equal(t, "Alpha.local", b.OriginalValue)
}

func TestOriginalValueMatchesBackup(t *testing.T) {
	s := newTestStore(t, clock.Real)
	id, err := s.CreateBackup("hostname", "Alpha.local", "s1")
	require.NoError(t, err)

	kind, value, err := s.OriginalValue(id)
	require.NoError(t, err)
	assert.Equal(t, "hostname", kind)
	assert.Equal(t, "Alpha.local", value)

	_, _, err = s.OriginalValue("no-such-id")
	assert.Error(t, err)
}

func TestValidateReportsLiveMismatch(t *testing.T) {
	s := newTestStore(t, clock.Real)
	id, err := s.CreateBackup("hostname", "Alpha.local", "s1")
	require.NoError(t, err)

	results, err := s.Validate(func(kind string) (string, error) {
		return "spoofed-value", nil
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].BackupID)
	assert.True(t, results[0].IsValid)
	assert.NotEmpty(t, results[0].Warnings)
}
