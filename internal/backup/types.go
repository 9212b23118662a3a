// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package backup implements the Identity Backup Store: a crash-safe log,
// keyed by generated backup id, of every mutation the core has made to a
// persistent system identifier, grouped into sessions so a batch of
// related spoofs can be restored or discarded together.
package backup

import "time"

// IdentityBackup is a single recorded mutation: the value an identity had
// before it was spoofed, optionally the value it was spoofed to, and
// whether the on-disk copy has been confirmed to parse and match its
// checksum.
type IdentityBackup struct {
	ID            string            `json:"id"`
	SessionID     string            `json:"sessionId"`
	Kind          string            `json:"kind"`
	OriginalValue string            `json:"originalValue"`
	NewValue      string            `json:"newValue,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	Validated     bool              `json:"validated"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// BackupSession groups IdentityBackups created, restored, and deleted
// together. A persistent session is exempt from retention-based cleanup.
type BackupSession struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	Persistent bool      `json:"persistent"`
	Complete   bool      `json:"complete"`
	// BackupIDs is the ordered set of backups created in this session, in
	// insertion order.
	BackupIDs []string `json:"backupIds"`
}

// Reinstater is implemented by the Identity Spoofing Manager. The store
// calls it during restore to apply a recovered value to the live binding
// table, without the store importing the identity package.
type Reinstater interface {
	Reinstate(kind, value string) error
}

// ValidationResult is one backup's integrity check outcome.
type ValidationResult struct {
	BackupID string   `json:"backupId"`
	IsValid  bool     `json:"isValid"`
	Issues   []string `json:"issues,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
