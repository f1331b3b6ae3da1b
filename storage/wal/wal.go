// Package wal implements the write-ahead log: an append-only,
// newline-delimited JSON record stream plus the buffering and flush
// mechanics the transaction manager and recovery routine build on.
package wal

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/internal/metrics"
)

// RecordType tags the kind of event a log record describes.
type RecordType string

const (
	RecordBegin    RecordType = "begin"
	RecordCommit   RecordType = "commit"
	RecordRollback RecordType = "rollback"
	RecordAbort    RecordType = "abort"
	RecordInsert   RecordType = "insert"
	RecordUpdate   RecordType = "update"
	RecordDelete   RecordType = "delete"
)

// Record is one WAL entry. Before/After hold encoded tuple payloads
// (storage/tuple.Encode output) for data-modifying records and are nil
// otherwise. PageID/Slot identify the affected heap slot.
type Record struct {
	LSN     uint64     `json:"lsn"`
	TransID uint64     `json:"trans_id"`
	Type    RecordType `json:"type"`
	TableID uint32     `json:"table_id"`
	PageID  uint32     `json:"page_id"`
	Slot    uint16     `json:"slot"`
	Before  []byte     `json:"before,omitempty"`
	After   []byte     `json:"after,omitempty"`
}

// Manager buffers appended records in memory and flushes them as
// newline-delimited JSON to the log file. Append does not flush by
// itself: callers decide when durability is required (commit, or
// periodic checkpointing).
type Manager struct {
	mu      sync.Mutex
	buffer  []Record
	file    *os.File
	path    string
	nextLSN uint64
}

// New returns a log manager with no file bound yet; records can still
// be appended to the in-memory buffer before SetLogFile is called.
func New() *Manager {
	return &Manager{nextLSN: 0}
}

// SetLogFile opens path for append, creating it if absent. Existing
// content is preserved; callers wanting a replayed next-LSN should
// call Recover/ReadAll first and seed a fresh Manager's nextLSN from
// the highest record seen.
func (m *Manager) SetLogFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return dberr.Wrapf(dberr.KindIO, err, "open wal file %s", path)
	}
	m.file = f
	m.path = path
	return nil
}

// Append assigns the next LSN to rec, adds it to the in-memory buffer,
// and returns the assigned LSN. The record is not durable until Flush.
func (m *Manager) Append(rec Record) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextLSN++
	rec.LSN = m.nextLSN
	m.buffer = append(m.buffer, rec)
	metrics.WALAppends.Inc()
	return rec.LSN
}

// SeedNextLSN sets the next LSN to assign; used after recovery to
// resume numbering past the highest LSN seen in the log.
func (m *Manager) SeedNextLSN(lsn uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lsn > m.nextLSN {
		m.nextLSN = lsn
	}
}

// Flush writes every buffered record to the log file as one JSON
// object per line and clears the buffer.
func (m *Manager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.buffer) == 0 {
		return nil
	}
	if m.file == nil {
		return dberr.New(dberr.KindIO, "wal: no log file bound")
	}

	start := time.Now()
	w := bufio.NewWriter(m.file)
	for _, rec := range m.buffer {
		data, err := json.Marshal(rec)
		if err != nil {
			return dberr.Wrap(dberr.KindIO, err, "marshal wal record")
		}
		if _, err := w.Write(data); err != nil {
			return dberr.Wrap(dberr.KindIO, err, "write wal record")
		}
		if err := w.WriteByte('\n'); err != nil {
			return dberr.Wrap(dberr.KindIO, err, "write wal record")
		}
	}
	if err := w.Flush(); err != nil {
		return dberr.Wrap(dberr.KindIO, err, "flush wal buffer")
	}
	if err := m.file.Sync(); err != nil {
		return dberr.Wrap(dberr.KindIO, err, "sync wal file")
	}
	m.buffer = nil
	metrics.WALFlushes.Inc()
	metrics.WALFlushDuration.Observe(time.Since(start).Seconds())
	return nil
}

// ReadAll reads every record currently on disk at path, in log order.
// It does not consult or mutate the in-memory buffer.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Wrapf(dberr.KindIO, err, "open wal file %s", path)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, dberr.Wrap(dberr.KindIO, err, "parse wal record")
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, dberr.Wrap(dberr.KindIO, err, "scan wal file")
	}
	return records, nil
}

// Iterator returns an in-memory snapshot of the currently buffered
// (not-yet-flushed) records, for tests and diagnostics.
func (m *Manager) Iterator() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.buffer))
	copy(out, m.buffer)
	return out
}

// AllRecords returns every record this manager knows about, in log
// order: everything already flushed to the bound log file followed by
// whatever is still sitting in the in-memory buffer. A rollback's undo
// pass needs this rather than Iterator alone, since any other
// transaction committing in the meantime flushes (and clears) the
// shared buffer out from under a still-active transaction's earlier
// records.
func (m *Manager) AllRecords() ([]Record, error) {
	m.mu.Lock()
	path := m.path
	buffered := make([]Record, len(m.buffer))
	copy(buffered, m.buffer)
	m.mu.Unlock()

	var onDisk []Record
	if path != "" {
		var err error
		onDisk, err = ReadAll(path)
		if err != nil {
			return nil, err
		}
	}
	return append(onDisk, buffered...), nil
}

// Close closes the bound log file, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	return m.file.Close()
}
