// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package state provides the durable, keyed record store used by the
// identity backup store. Every
// write is crash-safe: the authoritative path only ever reflects a fully
// written, checksummed record.
package state

import "github.com/privarion/privariond/internal/errors"

// Store is a bucketed key/value persistence abstraction. Buckets are
// logical namespaces (e.g. "backups", "sessions"); keys are opaque
// identifiers within a bucket.
type Store interface {
	// CreateBucket creates a bucket if it does not already exist. Returns
	// ErrBucketExists if it does.
	CreateBucket(bucket string) error

	// List returns every key/value pair currently stored in bucket.
	// Corrupted records are skipped, not surfaced, so one bad entry never
	// hides the rest of the bucket.
	List(bucket string) (map[string][]byte, error)

	// Keys returns every key present in bucket, including ones whose
	// record is corrupted. Use this, followed by Get, to enumerate a
	// bucket without silently hiding corrupted entries.
	Keys(bucket string) ([]string, error)

	// Get returns the raw value for key in bucket, or ErrNotFound.
	Get(bucket, key string) ([]byte, error)

	// SetJSON marshals v and durably writes it under key in bucket.
	SetJSON(bucket, key string, v any) error

	// GetJSON reads key from bucket and unmarshals it into v.
	GetJSON(bucket, key string, v any) error

	// Delete removes key from bucket. Deleting a missing key is a no-op.
	Delete(bucket, key string) error

	// ListBuckets returns the names of every bucket that has been created.
	ListBuckets() ([]string, error)
}

var (
	// ErrBucketExists is returned by CreateBucket when the bucket is already present.
	ErrBucketExists = errors.New(errors.KindConflict, "bucket already exists")
	// ErrNotFound is returned when a requested key is absent from its bucket.
	ErrNotFound = errors.New(errors.KindNotFound, "key not found")
)
