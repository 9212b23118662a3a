// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package backup

import "fmt"

// LiveValueFunc looks up the current live value of an identity, for
// comparison against a backup's recorded original value during Validate.
type LiveValueFunc func(kind string) (string, error)

// Validate enumerates every backup record, including corrupted ones, and
// reports each one's integrity. When live is non-nil, it also compares
// original_value against the identity's current live value and records a
// mismatch as a warning (not an error: the live value is expected to
// differ whenever a spoof is currently active).
func (s *Store) Validate(live LiveValueFunc) ([]ValidationResult, error) {
	keys, err := s.st.Keys(bucketBackups)
	if err != nil {
		return nil, err
	}

	results := make([]ValidationResult, 0, len(keys))
	for _, id := range keys {
		var b IdentityBackup
		getErr := s.st.GetJSON(bucketBackups, id, &b)
		if getErr != nil {
			results = append(results, ValidationResult{
				BackupID: id,
				IsValid:  false,
				Issues:   []string{getErr.Error()},
			})
			continue
		}

		result := ValidationResult{BackupID: id, IsValid: true}
		if live != nil {
			if current, err := live(b.Kind); err == nil && current != b.OriginalValue {
				result.Warnings = append(result.Warnings, fmt.Sprintf("live value %q differs from recorded original %q", current, b.OriginalValue))
			}
		}
		results = append(results, result)
	}
	return results, nil
}
