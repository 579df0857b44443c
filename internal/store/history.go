package store

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/nestegg/internal/model"
	"github.com/theirongolddev/nestegg/internal/source"
)

// HistoryStore keeps per-user purchase histories in memory and mirrors
// each one to <dir>/<user_id>.jsonl after every append.
type HistoryStore struct {
	dir   string
	locks KeyedMutex

	mu    sync.RWMutex
	cache map[int]model.UserHistory
}

// NewHistoryStore returns a store rooted at dir. The directory is created
// lazily on the first write.
func NewHistoryStore(dir string) *HistoryStore {
	return &HistoryStore{
		dir:   dir,
		cache: make(map[int]model.UserHistory),
	}
}

// Dir returns the history directory.
func (s *HistoryStore) Dir() string {
	return s.dir
}

// Merge folds the newest incoming record into the user's history.
// Only the last element of incoming is considered. The returned bool
// reports whether a record was appended.
//
// A record is appended when there is no history yet, when its timestamp is
// non-empty and differs from the last stored one, or when the timestamps
// match but any identity field differs. Every append rewrites the whole file.
func (s *HistoryStore) Merge(userID int, incoming []model.PurchaseRecord) (model.UserHistory, bool, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	current, _ := s.load(userID)
	if len(incoming) == 0 {
		return current, false, nil
	}

	rec := source.Clean(incoming[len(incoming)-1])
	rec.UserID = userID

	if !shouldAppend(current, rec) {
		return current, false, nil
	}

	next := model.UserHistory{
		UserID:  userID,
		Records: append(slices.Clone(current.Records), rec),
	}
	if err := s.rewrite(next); err != nil {
		return current, false, model.Errorf(model.KindPersistence, "history rewrite", err)
	}

	s.mu.Lock()
	s.cache[userID] = next
	s.mu.Unlock()

	return cloneHistory(next), true, nil
}

func shouldAppend(h model.UserHistory, rec model.PurchaseRecord) bool {
	last, ok := h.Last()
	if !ok {
		return true
	}
	if rec.Timestamp != "" && rec.Timestamp != last.Timestamp {
		return true
	}
	return !rec.Same(last)
}

// Load returns the user's history, reading it from disk on a cache miss.
// Missing or unreadable files yield an empty history.
func (s *HistoryStore) Load(userID int) model.UserHistory {
	unlock := s.locks.Lock(userID)
	defer unlock()

	h, _ := s.load(userID)
	return h
}

// load returns a copy of the cached history, populating the cache from disk
// when needed. The second value counts skipped lines. Callers hold the user lock.
func (s *HistoryStore) load(userID int) (model.UserHistory, int) {
	s.mu.RLock()
	h, ok := s.cache[userID]
	s.mu.RUnlock()
	if ok {
		return cloneHistory(h), 0
	}

	res := source.ParseFile(source.HistoryPath(s.dir, userID), userID)
	if res.Err != nil && !os.IsNotExist(res.Err) {
		slog.Warn("history unreadable, starting empty", "user_id", userID, "error", res.Err)
	}
	if res.ParseErrors > 0 {
		slog.Debug("skipped malformed history lines", "user_id", userID, "count", res.ParseErrors)
	}

	h = model.UserHistory{UserID: userID, Records: res.Records}
	s.mu.Lock()
	s.cache[userID] = h
	s.mu.Unlock()

	return cloneHistory(h), res.ParseErrors
}

// Clear drops the cached history and deletes the file. A missing file is not an error.
func (s *HistoryStore) Clear(userID int) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()

	err := os.Remove(source.HistoryPath(s.dir, userID))
	if err != nil && !os.IsNotExist(err) {
		return model.Errorf(model.KindPersistence, "history clear", err)
	}
	return nil
}

// Users returns the ids of users with a history file on disk.
func (s *HistoryStore) Users() ([]int, error) {
	files, err := source.ScanDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", s.dir, err)
	}
	return source.UserIDs(files), nil
}

// ProgressFunc is called while warming to report progress.
type ProgressFunc func(current, total int)

// WarmResult summarizes a Warm call.
type WarmResult struct {
	Users       int
	Records     int
	ParseErrors int
}

// Warm loads many histories into the cache with a bounded worker pool.
func (s *HistoryStore) Warm(userIDs []int, progressFn ProgressFunc) WarmResult {
	result := WarmResult{Users: len(userIDs)}
	if len(userIDs) == 0 {
		return result
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(userIDs) {
		numWorkers = len(userIDs)
	}

	work := make(chan int, len(userIDs))
	for i := range userIDs {
		work <- i
	}
	close(work)

	var (
		wg          sync.WaitGroup
		processed   atomic.Int64
		records     atomic.Int64
		parseErrors atomic.Int64
	)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				id := userIDs[idx]
				unlock := s.locks.Lock(id)
				h, bad := s.load(id)
				unlock()

				records.Add(int64(h.Len()))
				parseErrors.Add(int64(bad))
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(userIDs))
				}
			}
		}()
	}
	wg.Wait()

	result.Records = int(records.Load())
	result.ParseErrors = int(parseErrors.Load())
	return result
}

// rewrite replaces the user's file with the full history via a temp file and rename.
func (s *HistoryStore) rewrite(h model.UserHistory) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	var buf bytes.Buffer
	for _, r := range h.Records {
		line, err := source.EncodeLine(r)
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	path := source.HistoryPath(s.dir, h.UserID)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func cloneHistory(h model.UserHistory) model.UserHistory {
	return model.UserHistory{UserID: h.UserID, Records: slices.Clone(h.Records)}
}
