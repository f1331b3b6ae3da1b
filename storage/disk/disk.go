// Package disk implements the per-table file lifecycle backing the
// buffer pool: lazily-opened table files, positional page read/write,
// and page allocation.
package disk

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/storage/page"
)

// Manager owns one *os.File per table, opened on first use and kept
// resident for the process lifetime.
type Manager struct {
	mu        sync.Mutex
	dataDir   string
	tableFile map[uint32]string
	openFiles map[uint32]*os.File
}

// New returns a disk manager rooted at dataDir. The directory is not
// created here; callers are expected to have prepared it (the engine
// does this at startup).
func New(dataDir string) *Manager {
	return &Manager{
		dataDir:   dataDir,
		tableFile: make(map[uint32]string),
		openFiles: make(map[uint32]*os.File),
	}
}

// RegisterTable overrides the default path (data/table_{id}.data) for
// a table id, used when opening a pre-existing file from a different
// location.
func (m *Manager) RegisterTable(tableID uint32, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tableFile[tableID] = path
}

func (m *Manager) fileFor(tableID uint32) (*os.File, error) {
	if f, ok := m.openFiles[tableID]; ok {
		return f, nil
	}
	path, ok := m.tableFile[tableID]
	if !ok {
		path = filepath.Join(m.dataDir, tableFileName(tableID))
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, dberr.Wrapf(dberr.KindIO, err, "open table file %s", path)
	}
	m.openFiles[tableID] = f
	return f, nil
}

func tableFileName(tableID uint32) string {
	return "table_" + strconv.FormatUint(uint64(tableID), 10) + ".data"
}

// ReadPage reads exactly page.Size bytes for page_id into data.
func (m *Manager) ReadPage(tableID uint32, pageID uint32, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := m.fileFor(tableID)
	if err != nil {
		return err
	}
	n, err := f.ReadAt(data[:page.Size], int64(pageID)*page.Size)
	if err != nil {
		return dberr.Wrapf(dberr.KindIO, err, "read page %d of table %d", pageID, tableID)
	}
	if n != page.Size {
		return dberr.Newf(dberr.KindIO, "short read for page %d of table %d", pageID, tableID)
	}
	return nil
}

// WritePage writes exactly page.Size bytes at page_id's offset.
func (m *Manager) WritePage(tableID uint32, pageID uint32, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := m.fileFor(tableID)
	if err != nil {
		return err
	}
	if _, err := f.WriteAt(data[:page.Size], int64(pageID)*page.Size); err != nil {
		return dberr.Wrapf(dberr.KindIO, err, "write page %d of table %d", pageID, tableID)
	}
	return nil
}

// AllocatePage extends the table file by one zero-filled page and
// returns its 0-based page id.
func (m *Manager) AllocatePage(tableID uint32) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := m.fileFor(tableID)
	if err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, dberr.Wrap(dberr.KindIO, err, "stat table file")
	}
	pageID := uint32(info.Size() / page.Size)
	var zero [page.Size]byte
	if _, err := f.WriteAt(zero[:], info.Size()); err != nil {
		return 0, dberr.Wrap(dberr.KindIO, err, "extend table file")
	}
	return pageID, nil
}

// PageCount returns the number of pages currently in the table file.
func (m *Manager) PageCount(tableID uint32) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := m.fileFor(tableID)
	if err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, dberr.Wrap(dberr.KindIO, err, "stat table file")
	}
	return uint64(info.Size()) / page.Size, nil
}
