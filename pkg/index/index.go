// Package index implements the persistent fingerprint/suppression
// store (spec §4.6): a directory-backed store under
// .metadata_astrograph/ keyed by file_path, with atomic upsert/remove,
// cluster reconstruction for cross-run reporting, suppression
// bookkeeping with staleness invalidation, and a writer lock so a
// second concurrent analysis run fails fast rather than corrupting
// entries.bin.
package index

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/astrograph-io/astrograph/pkg/fingerprint"
)

// Sentinel errors matching spec §7's error kinds that originate in
// the index layer.
var (
	ErrConcurrentRunRefused = errors.New("astrograph: concurrent run refused, index is locked")
	ErrIndexCorruption      = errors.New("astrograph: index corruption detected")
)

const recordVersion uint32 = 1

// IndexEntry is the persistent record of a CodeUnit (spec §3).
type IndexEntry struct {
	FilePath           string
	Name               string
	LanguageID         string
	StartLine          int
	EndLine            int
	Kind               string
	Fingerprint        fingerprint.Digest // exact hash
	PatternFingerprint fingerprint.Digest
	EvidenceDigest     string
}

// Suppression is a user-declared tolerance for a cluster (spec §3).
type Suppression struct {
	ClusterKey      string
	EvidenceDigests []string
	Reason          string
	CreatedAt       time.Time
}

// ClusterRef is a cluster reconstructed from persisted entries by
// LookupClusters, for cross-run reporting.
type ClusterRef struct {
	Kind        string
	Fingerprint fingerprint.Digest
	Entries     []IndexEntry
}

const entriesFile = "entries.bin"
const suppressionsFile = "suppressions.log"
const lockFile = ".lock"

// Store is a durable, directory-backed index. One process may hold a
// writer lock on a given directory at a time; Open fails with
// ErrConcurrentRunRefused if another process already holds it.
type Store struct {
	dir string
	mu  sync.Mutex

	entriesByFile map[string][]IndexEntry
	suppressions  map[string]Suppression
	fileIDs       map[string]uint32
	nextFileID    uint32
	indexedFiles  *roaring.Bitmap

	lock *os.File
}

// Open opens (creating if necessary) the store rooted at dir,
// replays entries.bin and suppressions.log, and acquires the writer
// lock.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("astrograph: create index dir: %w", err)
	}

	lock, err := acquireLock(filepath.Join(dir, lockFile))
	if err != nil {
		return nil, err
	}

	s := &Store{
		dir:           dir,
		entriesByFile: make(map[string][]IndexEntry),
		suppressions:  make(map[string]Suppression),
		fileIDs:       make(map[string]uint32),
		indexedFiles:  roaring.New(),
		lock:          lock,
	}

	if err := s.loadEntries(); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.loadSuppressions(); err != nil {
		s.Close()
		return nil, err
	}
	s.recomputeActiveSuppressions()

	return s, nil
}

func acquireLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrConcurrentRunRefused
		}
		return nil, fmt.Errorf("astrograph: acquire index lock: %w", err)
	}
	return f, nil
}

// Dir returns the directory this store is rooted at.
func (s *Store) Dir() string {
	return s.dir
}

// Close releases the writer lock. It does not flush in-memory state;
// callers must call a mutating operation (which flushes) before
// Close if they want durability.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lock == nil {
		return nil
	}
	path := s.lock.Name()
	err := s.lock.Close()
	_ = os.Remove(path)
	s.lock = nil
	return err
}

func (s *Store) internFileID(path string) uint32 {
	if id, ok := s.fileIDs[path]; ok {
		return id
	}
	id := s.nextFileID
	s.nextFileID++
	s.fileIDs[path] = id
	return id
}

// Upsert atomically replaces the IndexEntries for filePath (spec
// §4.6). Suppression activity is not cached: every suppression query
// re-derives it from the entries as they stand after this call.
func (s *Store) Upsert(filePath string, entries []IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entriesByFile[filePath] = entries
	s.indexedFiles.Add(s.internFileID(filePath))
	s.recomputeActiveSuppressions()
	return s.flushEntries()
}

// Remove deletes filePath's entries (spec §4.6: "removed when the
// file disappears").
func (s *Store) Remove(filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entriesByFile, filePath)
	if id, ok := s.fileIDs[filePath]; ok {
		s.indexedFiles.Remove(id)
	}
	s.recomputeActiveSuppressions()
	return s.flushEntries()
}

// LookupClusters reconstructs clusters from persisted fingerprints,
// grouping by (kind, fingerprint) across every currently indexed
// file. Used for cross-run reporting without rerunning discovery.
func (s *Store) LookupClusters() []ClusterRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct {
		kind   string
		digest fingerprint.Digest
	}
	groups := make(map[key][]IndexEntry)
	for _, entries := range s.entriesByFile {
		for _, e := range entries {
			k := key{kind: e.Kind, digest: e.Fingerprint}
			groups[k] = append(groups[k], e)
		}
	}

	var out []ClusterRef
	for k, entries := range groups {
		if len(entries) < 2 {
			continue
		}
		out = append(out, ClusterRef{Kind: k.kind, Fingerprint: k.digest, Entries: entries})
	}
	return out
}

// AllEntries returns a flattened snapshot of every currently indexed
// entry, across all files. Used by the facade to reconstruct a
// cluster's evidence digests from a bare cluster key.
func (s *Store) AllEntries() []IndexEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []IndexEntry
	for _, entries := range s.entriesByFile {
		out = append(out, entries...)
	}
	return out
}

// LookupByFingerprint returns every currently indexed entry of the
// given kind whose exact or pattern fingerprint matches exact/pattern,
// across all files. Used by the write/edit pre-create check to find
// existing duplicates of not-yet-written content.
func (s *Store) LookupByFingerprint(kind string, exact, pattern fingerprint.Digest) []IndexEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []IndexEntry
	for _, entries := range s.entriesByFile {
		for _, e := range entries {
			if e.Kind != kind {
				continue
			}
			if e.Fingerprint == exact || e.PatternFingerprint == pattern {
				out = append(out, e)
			}
		}
	}
	return out
}

// AddSuppression records a user-declared tolerance and appends it to
// the suppression log.
func (s *Store) AddSuppression(clusterKey string, evidenceDigests []string, reason string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sup := Suppression{ClusterKey: clusterKey, EvidenceDigests: evidenceDigests, Reason: reason, CreatedAt: createdAt}
	s.suppressions[clusterKey] = sup
	if err := s.appendSuppressionRecord(suppressionRecord{Op: opAdd, Suppression: sup}); err != nil {
		return err
	}
	s.recomputeActiveSuppressions()
	return nil
}

// Unsuppress removes a previously declared suppression.
func (s *Store) Unsuppress(clusterKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.suppressions[clusterKey]; !ok {
		return nil
	}
	delete(s.suppressions, clusterKey)
	return s.appendSuppressionRecord(suppressionRecord{Op: opRemove, Suppression: Suppression{ClusterKey: clusterKey}})
}

// ListActiveSuppressions returns suppressions whose evidence digests
// all still exist in current IndexEntries (spec §4.6).
func (s *Store) ListActiveSuppressions() []Suppression {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.activeSet()
	out := make([]Suppression, 0, len(active))
	for _, key := range sortedKeys(active) {
		out = append(out, s.suppressions[key])
	}
	return out
}

// IsSuppressed reports whether clusterKey is currently covered by an
// active, non-stale suppression. Satisfies
// discovery.ActiveSuppressionCheck.
func (s *Store) IsSuppressed(clusterKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSet()[clusterKey]
}

// PruneStaleSuppressions removes suppressions whose evidence digests
// no longer match any current entry, returning the count removed.
func (s *Store) PruneStaleSuppressions() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.activeSet()
	removed := 0
	for key := range s.suppressions {
		if !active[key] {
			delete(s.suppressions, key)
			if err := s.appendSuppressionRecord(suppressionRecord{Op: opRemove, Suppression: Suppression{ClusterKey: key}}); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// currentEvidenceDigests returns the set of evidence digests present
// across all currently indexed entries.
func (s *Store) currentEvidenceDigests() map[string]bool {
	out := make(map[string]bool)
	for _, entries := range s.entriesByFile {
		for _, e := range entries {
			out[e.EvidenceDigest] = true
		}
	}
	return out
}

func (s *Store) activeSet() map[string]bool {
	current := s.currentEvidenceDigests()
	active := make(map[string]bool, len(s.suppressions))
	for key, sup := range s.suppressions {
		if allDigestsPresent(sup.EvidenceDigests, current) {
			active[key] = true
		}
	}
	return active
}

func allDigestsPresent(digests []string, current map[string]bool) bool {
	for _, d := range digests {
		if !current[d] {
			return false
		}
	}
	return true
}

// recomputeActiveSuppressions is a no-op placeholder point where a
// future cached-active-set optimization would hook in; today
// activeSet() is always computed fresh, which keeps the staleness
// invariant trivially correct.
func (s *Store) recomputeActiveSuppressions() {}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// --- on-disk encoding ---

type entryFileRecord struct {
	FilePath string
	Entries  []IndexEntry
}

func (s *Store) flushEntries() error {
	path := filepath.Join(s.dir, entriesFile)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("astrograph: create entries file: %w", err)
	}
	defer f.Close()

	for filePath, entries := range s.entriesByFile {
		rec := entryFileRecord{FilePath: filePath, Entries: entries}
		if err := writeRecord(f, rec); err != nil {
			return err
		}
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) loadEntries() error {
	path := filepath.Join(s.dir, entriesFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("astrograph: open entries file: %w", err)
	}
	defer f.Close()

	for {
		var rec entryFileRecord
		ok, err := readRecord(f, &rec)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIndexCorruption, err)
		}
		if !ok {
			break
		}
		s.entriesByFile[rec.FilePath] = rec.Entries
		s.indexedFiles.Add(s.internFileID(rec.FilePath))
	}
	return nil
}

type suppressionOp int

const (
	opAdd suppressionOp = iota
	opRemove
)

type suppressionRecord struct {
	Op          suppressionOp
	Suppression Suppression
}

func (s *Store) appendSuppressionRecord(rec suppressionRecord) error {
	path := filepath.Join(s.dir, suppressionsFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("astrograph: open suppressions log: %w", err)
	}
	defer f.Close()
	return writeRecord(f, rec)
}

func (s *Store) loadSuppressions() error {
	path := filepath.Join(s.dir, suppressionsFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("astrograph: open suppressions log: %w", err)
	}
	defer f.Close()

	for {
		var rec suppressionRecord
		ok, err := readRecord(f, &rec)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIndexCorruption, err)
		}
		if !ok {
			break
		}
		switch rec.Op {
		case opAdd:
			s.suppressions[rec.Suppression.ClusterKey] = rec.Suppression
		case opRemove:
			delete(s.suppressions, rec.Suppression.ClusterKey)
		}
	}
	return nil
}

// writeRecord writes [4-byte version][4-byte length][gob payload].
// Forward-compatibility (unknown trailing fields ignored) falls out
// of gob's own field-name-based decoding.
func writeRecord(w interface{ Write([]byte) (int, error) }, payload any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("astrograph: encode record: %w", err)
	}

	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header[0:4], recordVersion)
	binary.BigEndian.PutUint32(header[4:8], uint32(buf.Len()))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("astrograph: write record header: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("astrograph: write record payload: %w", err)
	}
	return nil
}

// readRecord reads one record into dst. ok is false at clean EOF.
func readRecord(r *os.File, dst any) (ok bool, err error) {
	header := make([]byte, 8)
	n, err := r.Read(header)
	if err != nil || n == 0 {
		return false, nil
	}
	if n < 8 {
		return false, fmt.Errorf("truncated record header")
	}
	version := binary.BigEndian.Uint32(header[0:4])
	if version != recordVersion {
		return false, fmt.Errorf("unknown record version %d", version)
	}
	length := binary.BigEndian.Uint32(header[4:8])

	payload := make([]byte, length)
	if _, err := readFull(r, payload); err != nil {
		return false, fmt.Errorf("read record payload: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(dst); err != nil {
		return false, fmt.Errorf("decode record: %w", err)
	}
	return true, nil
}

func readFull(r *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	if total != len(buf) {
		return total, fmt.Errorf("short read: got %d want %d", total, len(buf))
	}
	return total, nil
}
