// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package state

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/privarion/privariond/internal/errors"
	"github.com/privarion/privariond/internal/logging"
)

const checksumSize = sha256.Size

// FileStore is a Store backed by one file per key, each written with an
// atomic temp-write-fsync-rename sequence and a trailing checksum so a
// crash between write and rename never leaves a record that is neither
// the old nor the new value.
type FileStore struct {
	baseDir string

	mu      sync.RWMutex
	buckets map[string]bool
}

// NewFileStore opens (creating if absent) a FileStore rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "create store root directory")
	}
	fs := &FileStore{baseDir: baseDir, buckets: make(map[string]bool)}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "list store root directory")
	}
	for _, e := range entries {
		if e.IsDir() {
			fs.buckets[e.Name()] = true
		}
	}
	return fs, nil
}

func (fs *FileStore) bucketDir(bucket string) string {
	return filepath.Join(fs.baseDir, bucket)
}

func (fs *FileStore) recordPath(bucket, key string) string {
	return filepath.Join(fs.bucketDir(bucket), sanitizeKey(key)+".rec")
}

// sanitizeKey strips path separators so a malicious or malformed key can
// never escape the bucket directory.
func sanitizeKey(key string) string {
	out := make([]rune, 0, len(key))
	for _, r := range key {
		if r == '/' || r == '\\' || r == 0 {
			out = append(out, '_')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func (fs *FileStore) CreateBucket(bucket string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.buckets[bucket] {
		return ErrBucketExists
	}
	if err := os.MkdirAll(fs.bucketDir(bucket), 0o700); err != nil {
		return errors.Wrap(err, errors.KindInternal, "create bucket directory")
	}
	fs.buckets[bucket] = true
	return nil
}

func (fs *FileStore) ListBuckets() ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	names := make([]string, 0, len(fs.buckets))
	for name := range fs.buckets {
		names = append(names, name)
	}
	return names, nil
}

// List returns every valid record in bucket. A record that fails to parse
// or fails its checksum is logged and skipped rather than surfaced, so one
// corrupted file never hides the rest of the bucket.
func (fs *FileStore) List(bucket string) (map[string][]byte, error) {
	dir := fs.bucketDir(bucket)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "list bucket")
	}

	out := make(map[string][]byte, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".rec" {
			continue
		}
		key := name[:len(name)-len(ext)]

		payload, err := readRecord(filepath.Join(dir, name))
		if err != nil {
			logging.Warn("skipping corrupted record", "bucket", bucket, "key", key, "error", err)
			continue
		}
		out[key] = payload
	}
	return out, nil
}

// Keys returns every record's key in bucket, including corrupted ones.
func (fs *FileStore) Keys(bucket string) ([]string, error) {
	dir := fs.bucketDir(bucket)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "list bucket")
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".rec" {
			continue
		}
		keys = append(keys, name[:len(name)-len(ext)])
	}
	return keys, nil
}

func (fs *FileStore) Get(bucket, key string) ([]byte, error) {
	payload, err := readRecord(fs.recordPath(bucket, key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.WrapCoded(err, errors.KindInternal, errors.CodeBackupValidationFailed, "read record")
	}
	return payload, nil
}

func (fs *FileStore) GetJSON(bucket, key string, v any) error {
	payload, err := fs.Get(bucket, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return errors.WrapCoded(err, errors.KindInternal, errors.CodeBackupValidationFailed, "unmarshal record")
	}
	return nil
}

func (fs *FileStore) SetJSON(bucket, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, errors.KindInternal, "marshal record")
	}
	return writeRecord(fs.recordPath(bucket, key), payload)
}

func (fs *FileStore) Delete(bucket, key string) error {
	err := os.Remove(fs.recordPath(bucket, key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.KindInternal, "delete record")
	}
	return nil
}

// writeRecord durably persists payload at path: the record (4-byte
// big-endian length prefix, payload, 32-byte sha256 checksum trailer) is
// written to a temp file in the same directory, fsynced, and renamed over
// path. Either the old or the new file survives any crash point.
func writeRecord(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, errors.KindInternal, "create record directory")
	}

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(payload)))

	sum := sha256.Sum256(payload)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.KindInternal, "create temp record file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(lenPrefix[:]); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.KindInternal, "write record length prefix")
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.KindInternal, "write record payload")
	}
	if _, err := tmp.Write(sum[:]); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.KindInternal, "write record checksum")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.KindInternal, "fsync temp record file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.KindInternal, "close temp record file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, errors.KindInternal, "rename record into place")
	}
	return nil
}

// readRecord parses a record written by writeRecord, verifying the length
// prefix and checksum. It returns an error for any mismatch so the caller
// can treat the record as invalid without crashing the whole read path.
func readRecord(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 4+checksumSize {
		return nil, errors.New(errors.KindInternal, "record too short")
	}

	declaredLen := binary.BigEndian.Uint32(data[:4])
	body := data[4:]
	if len(body) < checksumSize {
		return nil, errors.New(errors.KindInternal, "record truncated")
	}

	payload := body[:len(body)-checksumSize]
	trailer := body[len(body)-checksumSize:]

	if int(declaredLen) != len(payload) {
		return nil, errors.New(errors.KindInternal, "record length prefix mismatch")
	}

	sum := sha256.Sum256(payload)
	if string(sum[:]) != string(trailer) {
		return nil, errors.New(errors.KindInternal, "record checksum mismatch")
	}

	return payload, nil
}
