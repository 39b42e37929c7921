package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bioseqlab/crisprflow/core"
)

// FileSink writes one JSONL file per session under a directory. Lines are
// appended with O_APPEND so each partition is strictly ordered; a decode
// error on read skips the offending line rather than failing the whole read.
// Appends are locked per partition, so sessions never contend with each
// other.
type FileSink struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex // sessionID -> partition lock
}

// NewFileSink creates the audit directory if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	return &FileSink{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *FileSink) partitionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

func (s *FileSink) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".jsonl")
}

// Append encodes the event as one JSON line in its session partition.
func (s *FileSink) Append(_ context.Context, event core.AuditEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	lock := s.partitionLock(event.SessionID)
	lock.Lock()
	defer lock.Unlock()
	f, err := os.OpenFile(s.path(event.SessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit partition %s: %w", event.SessionID, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ReadEvents decodes one session's partition in append order.
func (s *FileSink) ReadEvents(_ context.Context, sessionID string) ([]core.AuditEvent, error) {
	f, err := os.Open(s.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit partition %s: %w", sessionID, err)
	}
	defer f.Close()

	var events []core.AuditEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev core.AuditEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit partition %s: %w", sessionID, err)
	}
	return events, nil
}

// ListSessions returns session ids that have audit partitions, sorted.
func (s *FileSink) ListSessions(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list audit partitions: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".jsonl"))
	}
	sort.Strings(ids)
	return ids, nil
}
