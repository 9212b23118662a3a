// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package backup

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/privarion/privariond/internal/clock"
	"github.com/privarion/privariond/internal/errors"
	"github.com/privarion/privariond/internal/logging"
	"github.com/privarion/privariond/internal/metrics"
	"github.com/privarion/privariond/internal/state"
)

const (
	bucketBackups  = "backups"
	bucketSessions = "sessions"

	// DefaultRetention is how long a non-persistent backup survives before
	// Cleanup is eligible to remove it.
	DefaultRetention = 30 * 24 * time.Hour
)

// Store is the Identity Backup Store. Write transactions (starting,
// extending, and completing a session) are serialized: at most one
// session may be open at a time per Store. Reads may proceed concurrently.
type Store struct {
	st        state.Store
	clk       clock.Clock
	retention time.Duration
	log       *logging.Logger

	mu   sync.Mutex // serializes the open-session write transaction
	open *BackupSession

	metrics *metrics.Metrics
}

// SetMetrics attaches m so session and backup operations are counted. Nil
// leaves counting disabled.
func (s *Store) SetMetrics(m *metrics.Metrics) { s.metrics = m }

// NewStore opens (creating buckets as needed) a backup Store on top of st.
func NewStore(st state.Store, clk clock.Clock, retention time.Duration) (*Store, error) {
	if err := st.CreateBucket(bucketBackups); err != nil && err != state.ErrBucketExists {
		return nil, errors.Wrap(err, errors.KindInternal, "create backups bucket")
	}
	if err := st.CreateBucket(bucketSessions); err != nil && err != state.ErrBucketExists {
		return nil, errors.Wrap(err, errors.KindInternal, "create sessions bucket")
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		st:        st,
		clk:       clk,
		retention: retention,
		log:       logging.Default().WithComponent("backup"),
	}, nil
}

// StartSession opens a new session named name. Fails with KindConflict if
// a session is already open.
func (s *Store) StartSession(name string, persistent bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open != nil {
		err := errors.Codedf(errors.KindConflict, errors.CodeNone, "a session is already open: %s", s.open.ID)
		s.recordOp("start_session", err)
		return "", err
	}

	session := &BackupSession{
		ID:         uuid.NewString(),
		Name:       name,
		CreatedAt:  s.clk.Now(),
		Persistent: persistent,
	}
	s.open = session
	s.recordOp("start_session", nil)
	return session.ID, nil
}

// recordOp reports op's outcome to the attached metrics client, if any.
func (s *Store) recordOp(op string, err error) {
	if s.metrics != nil {
		s.metrics.RecordBackupOp(op, err)
	}
}

// AddBackup records originalValue for kind within the currently open
// session. If the session already holds an active backup for kind, its id
// is returned unchanged rather than creating a second record, preserving
// the "at most one active backup per identity type per session" invariant.
func (s *Store) AddBackup(kind, originalValue string, metadata map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open == nil {
		err := errors.Coded(errors.KindConflict, errors.CodeNone, "no session is open; call StartSession first")
		s.recordOp("add_backup", err)
		return "", err
	}

	for _, id := range s.open.BackupIDs {
		var existing IdentityBackup
		if err := s.st.GetJSON(bucketBackups, id, &existing); err == nil && existing.Kind == kind {
			s.recordOp("add_backup", nil)
			return existing.ID, nil
		}
	}

	b := IdentityBackup{
		ID:            uuid.NewString(),
		SessionID:     s.open.ID,
		Kind:          kind,
		OriginalValue: originalValue,
		CreatedAt:     s.clk.Now(),
		Metadata:      metadata,
	}
	if err := s.st.SetJSON(bucketBackups, b.ID, &b); err != nil {
		wrapped := errors.Wrap(err, errors.KindInternal, "persist backup")
		s.recordOp("add_backup", wrapped)
		return "", wrapped
	}

	s.open.BackupIDs = append(s.open.BackupIDs, b.ID)
	s.recordOp("add_backup", nil)
	return b.ID, nil
}

// CompleteSession seals and persists the currently open session.
func (s *Store) CompleteSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open == nil {
		err := errors.Coded(errors.KindConflict, errors.CodeNone, "no session is open")
		s.recordOp("complete_session", err)
		return err
	}

	s.open.Complete = true
	if err := s.st.SetJSON(bucketSessions, s.open.ID, s.open); err != nil {
		wrapped := errors.Wrap(err, errors.KindInternal, "persist session")
		s.recordOp("complete_session", wrapped)
		return wrapped
	}
	s.open = nil
	s.recordOp("complete_session", nil)
	return nil
}

// CreateBackup is the single-shot convenience that opens a session, adds
// one backup, and completes the session.
func (s *Store) CreateBackup(kind, originalValue, sessionName string) (string, error) {
	if _, err := s.StartSession(sessionName, false); err != nil {
		s.recordOp("create_backup", err)
		return "", err
	}
	id, err := s.AddBackup(kind, originalValue, nil)
	if err != nil {
		s.recordOp("create_backup", err)
		return "", err
	}
	if err := s.CompleteSession(); err != nil {
		s.recordOp("create_backup", err)
		return "", err
	}
	s.recordOp("create_backup", nil)
	return id, nil
}

// ListBackups returns every persisted session.
func (s *Store) ListBackups() ([]BackupSession, error) {
	raw, err := s.st.List(bucketSessions)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "list sessions")
	}
	out := make([]BackupSession, 0, len(raw))
	for _, data := range raw {
		var sess BackupSession
		if err := json.Unmarshal(data, &sess); err != nil {
			s.log.Warn("skipping corrupted session record", "error", err)
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

// getBackup loads a single backup record by id.
func (s *Store) getBackup(backupID string) (IdentityBackup, error) {
	var b IdentityBackup
	if err := s.st.GetJSON(bucketBackups, backupID, &b); err != nil {
		if err == state.ErrNotFound {
			return b, errors.Codedf(errors.KindNotFound, errors.CodeBackupNotFound, "backup %s not found", backupID)
		}
		return b, errors.WrapCoded(err, errors.KindInternal, errors.CodeBackupValidationFailed, "read backup")
	}
	b.Validated = true
	return b, nil
}

// OriginalValue returns the kind and original value recorded for backupID,
// satisfying identity.BackupRecorder for callers that reinstate a value
// themselves rather than going through RestoreFromBackup.
func (s *Store) OriginalValue(backupID string) (kind, value string, err error) {
	b, err := s.getBackup(backupID)
	if err != nil {
		return "", "", err
	}
	return b.Kind, b.OriginalValue, nil
}

// RestoreFromBackup reinstates backupID's original value via r and returns
// the backup record. A failure to reinstate (e.g. a permission error) is
// surfaced as RestoreFailed and the backup is left intact for a retry.
func (s *Store) RestoreFromBackup(backupID string, r Reinstater) (IdentityBackup, error) {
	b, err := s.getBackup(backupID)
	if err != nil {
		s.recordOp("restore_backup", err)
		return IdentityBackup{}, err
	}
	if err := r.Reinstate(b.Kind, b.OriginalValue); err != nil {
		wrapped := errors.WrapCoded(err, errors.KindPermission, errors.CodeRestoreFailed, "reinstate original value")
		s.recordOp("restore_backup", wrapped)
		return IdentityBackup{}, wrapped
	}
	s.recordOp("restore_backup", nil)
	return b, nil
}

// RestoreSession restores every backup in sessionID, in reverse insertion
// order, stopping at the first failure (already-restored backups are not
// rolled back; the caller sees exactly how far restoration proceeded via
// the returned slice and error).
func (s *Store) RestoreSession(sessionID string, r Reinstater) ([]IdentityBackup, error) {
	var sess BackupSession
	if err := s.st.GetJSON(bucketSessions, sessionID, &sess); err != nil {
		if err == state.ErrNotFound {
			err := errors.Codedf(errors.KindNotFound, errors.CodeBackupNotFound, "session %s not found", sessionID)
			s.recordOp("restore_session", err)
			return nil, err
		}
		wrapped := errors.Wrap(err, errors.KindInternal, "read session")
		s.recordOp("restore_session", wrapped)
		return nil, wrapped
	}

	restored := make([]IdentityBackup, 0, len(sess.BackupIDs))
	for i := len(sess.BackupIDs) - 1; i >= 0; i-- {
		b, err := s.RestoreFromBackup(sess.BackupIDs[i], r)
		if err != nil {
			s.recordOp("restore_session", err)
			return restored, err
		}
		restored = append(restored, b)
	}
	s.recordOp("restore_session", nil)
	return restored, nil
}

// DeleteBackup removes a single backup record. Deleting a backup that
// belongs to a persistent session requires forcePersistent.
func (s *Store) DeleteBackup(backupID string, forcePersistent bool) error {
	b, err := s.getBackup(backupID)
	if err != nil {
		s.recordOp("delete_backup", err)
		return err
	}
	var sess BackupSession
	if err := s.st.GetJSON(bucketSessions, b.SessionID, &sess); err == nil && sess.Persistent && !forcePersistent {
		err := errors.Coded(errors.KindPermission, errors.CodeNone, "backup belongs to a persistent session; pass forcePersistent to delete it")
		s.recordOp("delete_backup", err)
		return err
	}
	err = s.st.Delete(bucketBackups, backupID)
	s.recordOp("delete_backup", err)
	return err
}

// DeleteSession deletes every backup in sessionID, then the session
// record. Deleting a persistent session requires forcePersistent.
func (s *Store) DeleteSession(sessionID string, forcePersistent bool) error {
	var sess BackupSession
	if err := s.st.GetJSON(bucketSessions, sessionID, &sess); err != nil {
		if err == state.ErrNotFound {
			err := errors.Codedf(errors.KindNotFound, errors.CodeBackupNotFound, "session %s not found", sessionID)
			s.recordOp("delete_session", err)
			return err
		}
		wrapped := errors.Wrap(err, errors.KindInternal, "read session")
		s.recordOp("delete_session", wrapped)
		return wrapped
	}
	if sess.Persistent && !forcePersistent {
		err := errors.Coded(errors.KindPermission, errors.CodeNone, "session is persistent; pass forcePersistent to delete it")
		s.recordOp("delete_session", err)
		return err
	}

	for _, id := range sess.BackupIDs {
		if err := s.st.Delete(bucketBackups, id); err != nil {
			wrapped := errors.Wrap(err, errors.KindInternal, "delete backup")
			s.recordOp("delete_session", wrapped)
			return wrapped
		}
	}
	err := s.st.Delete(bucketSessions, sessionID)
	s.recordOp("delete_session", err)
	return err
}
