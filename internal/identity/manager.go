// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package identity

import (
	"sync"

	"github.com/privarion/privariond/internal/errors"
	"github.com/privarion/privariond/internal/logging"
)

// BackupRecorder is the narrow slice of the Identity Backup Store's
// operations API the Manager needs. The Manager holds only this
// reference, never the store itself, so the dependency stays
// unidirectional: Manager -> Backup Store, never the reverse.
type BackupRecorder interface {
	// AddBackup records originalValue for kind within the currently open
	// session and returns the new backup's id.
	AddBackup(kind, originalValue string, metadata map[string]string) (string, error)
	// OriginalValue returns the original value recorded for a backup id.
	OriginalValue(backupID string) (kind, value string, err error)
}

// Manager mediates identity mutations, delegating platform queries to a
// HardwareIdentifierEngine and recording every mutation through a
// BackupRecorder before it takes effect.
type Manager struct {
	mu       sync.RWMutex
	engine   HardwareIdentifierEngine
	backups  BackupRecorder
	bindings map[Type]Binding
	log      *logging.Logger
}

// NewManager builds a Manager backed by engine for platform queries and
// backups for crash-safe mutation recording.
func NewManager(engine HardwareIdentifierEngine, backups BackupRecorder) *Manager {
	return &Manager{
		engine:   engine,
		backups:  backups,
		bindings: make(map[Type]Binding),
		log:      logging.Default().WithComponent("identity"),
	}
}

// CurrentValue returns the value a process observing t right now would see:
// the spoofed binding if one is installed, otherwise the live hardware value.
func (m *Manager) CurrentValue(t Type) (string, error) {
	m.mu.RLock()
	b, bound := m.bindings[t]
	m.mu.RUnlock()
	if bound {
		return b.Value, nil
	}
	return m.engine.CurrentValue(t)
}

// Spoof validates newValue's format, records the identifier's current
// value as a backup, installs the binding, and returns the new backup's
// id. The backup goes into the backup store's currently open session;
// session is stored only as the backup's "session" metadata entry and
// does not select or open a session.
func (m *Manager) Spoof(t Type, newValue, session string) (string, error) {
	if !t.Valid() {
		return "", errors.Codedf(errors.KindValidation, errors.CodeInvalidIdentityType, "unrecognized identity type: %q", t)
	}
	if err := ValidateValue(t, newValue); err != nil {
		return "", err
	}

	original, err := m.CurrentValue(t)
	if err != nil {
		return "", errors.Wrap(err, errors.KindInternal, "query current value before spoofing")
	}

	backupID, err := m.backups.AddBackup(string(t), original, map[string]string{"session": session})
	if err != nil {
		return "", errors.Wrap(err, errors.KindInternal, "record backup before spoofing")
	}

	m.mu.Lock()
	m.bindings[t] = Binding{Type: t, Value: newValue}
	m.mu.Unlock()

	m.log.Info("identity spoofed", "type", t, "backup_id", backupID)
	return backupID, nil
}

// Rollback reinstates the original value recorded under backupID and
// removes (or replaces) the corresponding binding.
func (m *Manager) Rollback(backupID string) error {
	kindStr, value, err := m.backups.OriginalValue(backupID)
	if err != nil {
		return errors.WrapCoded(err, errors.KindNotFound, errors.CodeBackupNotFound, "rollback: lookup backup")
	}

	if err := m.Reinstate(kindStr, value); err != nil {
		return err
	}
	m.log.Info("identity rolled back", "type", kindStr, "backup_id", backupID)
	return nil
}

// Reinstate implements backup.Reinstater: it is the callback the backup
// store invokes during restore_from_backup / restore_session to apply a
// restored value to the live binding table.
func (m *Manager) Reinstate(kind, value string) error {
	t := Type(kind)
	if !t.Valid() {
		return errors.Codedf(errors.KindValidation, errors.CodeInvalidIdentityType, "unrecognized identity type: %q", kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[t] = Binding{Type: t, Value: value}
	return nil
}

// ActiveBindings returns a snapshot of every currently installed binding.
func (m *Manager) ActiveBindings() []Binding {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Binding, 0, len(m.bindings))
	for _, b := range m.bindings {
		out = append(out, b)
	}
	return out
}
