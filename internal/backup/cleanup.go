// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package backup

import "github.com/privarion/privariond/internal/errors"

// Cleanup deletes (or, when dryRun, merely reports) every backup eligible
// for auto-deletion: now - createdAt > retention AND its session is not
// persistent. It is idempotent: running it again after a real deletion
// pass finds nothing further to do.
func (s *Store) Cleanup(dryRun bool) ([]string, error) {
	sessions, err := s.ListBackups()
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	var eligible []string

	for _, sess := range sessions {
		if sess.Persistent {
			continue
		}
		for _, id := range sess.BackupIDs {
			b, err := s.getBackup(id)
			if err != nil {
				s.log.Warn("cleanup: skipping unreadable backup", "backup_id", id, "error", err)
				continue
			}
			if now.Sub(b.CreatedAt) > s.retention {
				eligible = append(eligible, id)
			}
		}
	}

	if dryRun {
		s.recordOp("cleanup", nil)
		return eligible, nil
	}

	var deleted []string
	for _, id := range eligible {
		if err := s.DeleteBackup(id, false); err != nil {
			wrapped := errors.Wrap(err, errors.KindInternal, "cleanup: delete expired backup")
			s.recordOp("cleanup", wrapped)
			return deleted, wrapped
		}
		deleted = append(deleted, id)
	}
	s.recordOp("cleanup", nil)
	return deleted, nil
}
