package repository

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Impetoast/Catcord/domain/entities"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
)

// MirrorStore keeps the original->mirror correspondence in a bounded LRU and
// snapshots it to JSON so a restart keeps propagating edits and deletes for
// recent messages. Record updates are serialized per source-message key;
// unrelated fan-outs never contend.
type MirrorStore struct {
	records *lru.Cache[entities.MirrorKey, *entities.MirrorRecord]

	threadsMu sync.RWMutex
	threads   map[string]*entities.ThreadMirrorRecord

	keyLocksMu sync.Mutex
	keyLocks   map[entities.MirrorKey]*sync.Mutex

	path  string
	dirty sync.Map // used as an atomic dirty flag keyed by struct{}{}

	flushMu sync.Mutex
}

type mirrorSnapshot struct {
	Records []*entities.MirrorRecord               `json:"records"`
	Threads map[string]*entities.ThreadMirrorRecord `json:"threads"`
}

// NewMirrorStore creates a mirror store with the given retention cap,
// loading any previous snapshot from dataDir.
func NewMirrorStore(dataDir string, cap int) (*MirrorStore, error) {
	s := &MirrorStore{
		threads:  make(map[string]*entities.ThreadMirrorRecord),
		keyLocks: make(map[entities.MirrorKey]*sync.Mutex),
		path:     filepath.Join(dataDir, "mirrors.json"),
	}

	// The evict hook keeps keyLocks bounded by the cache cap; without it
	// every relayed message would leave a mutex behind forever.
	cache, err := lru.NewWithEvict[entities.MirrorKey, *entities.MirrorRecord](cap, s.onEvict)
	if err != nil {
		return nil, err
	}
	s.records = cache

	var snapshot mirrorSnapshot
	if err := readJSON(s.path, &snapshot); err == nil {
		for _, record := range snapshot.Records {
			s.records.Add(record.Key, record)
		}
		if snapshot.Threads != nil {
			s.threads = snapshot.Threads
		}
	} else if !os.IsNotExist(err) {
		log.WithError(err).Warn("Discarding unreadable mirror snapshot")
	}

	return s, nil
}

// onEvict drops the per-key mutex of a record leaving the cache. A record
// evicted by cap while a writer still holds its old lock can at worst lose a
// mirror entry for a message the store has already forgotten.
func (s *MirrorStore) onEvict(key entities.MirrorKey, _ *entities.MirrorRecord) {
	s.keyLocksMu.Lock()
	delete(s.keyLocks, key)
	s.keyLocksMu.Unlock()
}

// Get returns a copy of the record for a source message, if tracked.
func (s *MirrorStore) Get(key entities.MirrorKey) (*entities.MirrorRecord, bool) {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	record, ok := s.records.Get(key)
	if !ok {
		return nil, false
	}
	return copyMirrorRecord(record), true
}

// RecordMirror registers a mirrored message for a source message, creating
// the record on first use. Concurrent legs of the same fan-out serialize
// here so no completed leg is lost.
func (s *MirrorStore) RecordMirror(key entities.MirrorKey, groupName, targetChannelID, mirroredMessageID string) {
	lock := s.keyLock(key)
	lock.Lock()
	record, ok := s.records.Get(key)
	if !ok {
		record = entities.NewMirrorRecord(key, groupName)
		s.records.Add(key, record)
	}
	record.Mirrors[targetChannelID] = mirroredMessageID
	lock.Unlock()

	s.markDirty()
}

// Evict drops the record for a source message. The cache's evict hook
// releases the key's lock entry.
func (s *MirrorStore) Evict(key entities.MirrorKey) {
	lock := s.keyLock(key)
	lock.Lock()
	s.records.Remove(key)
	lock.Unlock()

	s.markDirty()
}

// GetThread returns a copy of the record for a source thread, if tracked.
func (s *MirrorStore) GetThread(threadID string) (*entities.ThreadMirrorRecord, bool) {
	s.threadsMu.RLock()
	defer s.threadsMu.RUnlock()

	record, ok := s.threads[threadID]
	if !ok {
		return nil, false
	}
	return copyThreadRecord(record), true
}

// RecordThreadMirror registers a mirrored thread under a target parent channel.
func (s *MirrorStore) RecordThreadMirror(threadID, name, targetChannelID, mirroredThreadID string) {
	s.threadsMu.Lock()
	record, ok := s.threads[threadID]
	if !ok {
		record = entities.NewThreadMirrorRecord(threadID, name)
		s.threads[threadID] = record
	}
	record.Mirrors[targetChannelID] = mirroredThreadID
	s.threadsMu.Unlock()

	s.markDirty()
}

// Run flushes dirty state to disk periodically until ctx is cancelled, then
// performs a final flush.
func (s *MirrorStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// Flush writes the current snapshot if anything changed since the last one.
func (s *MirrorStore) Flush() {
	if _, dirty := s.dirty.LoadAndDelete(struct{}{}); !dirty {
		return
	}

	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	// Records stay mutable while the snapshot is built, so each one is
	// deep-copied under its key lock before marshalling.
	snapshot := mirrorSnapshot{Threads: make(map[string]*entities.ThreadMirrorRecord)}
	for _, key := range s.records.Keys() {
		lock := s.keyLock(key)
		lock.Lock()
		if record, ok := s.records.Peek(key); ok {
			snapshot.Records = append(snapshot.Records, copyMirrorRecord(record))
		}
		lock.Unlock()
	}
	s.threadsMu.RLock()
	for id, record := range s.threads {
		snapshot.Threads[id] = copyThreadRecord(record)
	}
	s.threadsMu.RUnlock()

	if err := writeJSONAtomic(s.path, snapshot); err != nil {
		log.WithError(err).Error("Failed to write mirror snapshot")
	}
}

func (s *MirrorStore) keyLock(key entities.MirrorKey) *sync.Mutex {
	s.keyLocksMu.Lock()
	defer s.keyLocksMu.Unlock()
	lock, ok := s.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.keyLocks[key] = lock
	}
	return lock
}

func (s *MirrorStore) markDirty() {
	s.dirty.Store(struct{}{}, struct{}{})
}

func copyMirrorRecord(record *entities.MirrorRecord) *entities.MirrorRecord {
	copied := *record
	copied.Mirrors = make(map[string]string, len(record.Mirrors))
	for channel, message := range record.Mirrors {
		copied.Mirrors[channel] = message
	}
	return &copied
}

func copyThreadRecord(record *entities.ThreadMirrorRecord) *entities.ThreadMirrorRecord {
	copied := *record
	copied.Mirrors = make(map[string]string, len(record.Mirrors))
	for channel, thread := range record.Mirrors {
		copied.Mirrors[channel] = thread
	}
	return &copied
}
