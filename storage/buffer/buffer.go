// Package buffer implements the bounded buffer pool: pin-counted
// frames over a disk manager with FIFO-from-front LRU eviction among
// unpinned frames, and STEAL semantics (a dirty victim is flushed
// before reuse).
package buffer

import (
	"container/list"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/internal/dblog"
	"github.com/chocapikk/arcdb/internal/metrics"
	"github.com/chocapikk/arcdb/storage/disk"
	"github.com/chocapikk/arcdb/storage/page"
)

// GlobalPageID uniquely identifies a resident page across all tables.
type GlobalPageID struct {
	TableID uint32
	PageID  uint32
}

type frame struct {
	page     *page.Page
	pinCount int
	id       GlobalPageID
}

// Manager is the pool: a bounded slice of frames, a free list, a page
// table mapping GlobalPageID to frame index, and an LRU list of
// currently-unpinned frame indices (front = next victim).
type Manager struct {
	mu        sync.Mutex
	frames    []*frame
	capacity  int
	free      []int
	pageTable map[GlobalPageID]int
	lru       *list.List
	lruElem   map[int]*list.Element
	disk      *disk.Manager
}

// New returns a pool with the given frame capacity over disk.
func New(capacity int, d *disk.Manager) *Manager {
	free := make([]int, capacity)
	for i := range free {
		free[i] = i
	}
	return &Manager{
		frames:    make([]*frame, capacity),
		capacity:  capacity,
		free:      free,
		pageTable: make(map[GlobalPageID]int),
		lru:       list.New(),
		lruElem:   make(map[int]*list.Element),
		disk:      d,
	}
}

// Fetch returns the page for id, pinning it. A resident page is a
// cache hit; otherwise a victim frame is chosen (free list first, then
// least-recently-used unpinned frame), flushed through the disk
// manager if dirty, and the requested page is loaded into it.
func (m *Manager) Fetch(id GlobalPageID) (*page.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx, ok := m.pageTable[id]; ok {
		f := m.frames[idx]
		f.pinCount++
		m.removeFromLRU(idx)
		metrics.BufferPoolHits.Inc()
		if f.pinCount == 1 {
			metrics.BufferPoolPinned.Inc()
		}
		return f.page, nil
	}
	metrics.BufferPoolMisses.Inc()

	idx, err := m.victim()
	if err != nil {
		return nil, err
	}

	p := &page.Page{}
	if err := m.disk.ReadPage(id.TableID, id.PageID, p.Data[:]); err != nil {
		m.free = append(m.free, idx)
		return nil, err
	}
	p.Dirty = false

	f := &frame{page: p, pinCount: 1, id: id}
	m.frames[idx] = f
	m.pageTable[id] = idx
	metrics.BufferPoolPinned.Inc()
	return p, nil
}

// NewPage allocates a fresh page on disk, installs a zeroed page in a
// victim frame, marks it dirty, pins it, and returns its GlobalPageID.
func (m *Manager) NewPage(tableID uint32) (GlobalPageID, *page.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pageID, err := m.disk.AllocatePage(tableID)
	if err != nil {
		return GlobalPageID{}, nil, err
	}
	id := GlobalPageID{TableID: tableID, PageID: pageID}

	idx, err := m.victim()
	if err != nil {
		return GlobalPageID{}, nil, err
	}

	p := page.New(pageID, page.TypeHeap)
	f := &frame{page: p, pinCount: 1, id: id}
	m.frames[idx] = f
	m.pageTable[id] = idx
	metrics.BufferPoolPinned.Inc()
	return id, p, nil
}

// Unpin decrements the pin count for id. If dirty is true the frame's
// dirty flag is set. When the pin count reaches zero the frame becomes
// an eviction candidate, appended to the LRU tail.
func (m *Manager) Unpin(id GlobalPageID, dirty bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.pageTable[id]
	if !ok {
		return
	}
	f := m.frames[idx]
	if dirty {
		f.page.Dirty = true
	}
	if f.pinCount > 0 {
		f.pinCount--
	}
	if f.pinCount == 0 {
		m.pushLRU(idx)
		metrics.BufferPoolPinned.Dec()
	}
}

// Flush writes the frame for id through the disk manager if dirty, and
// clears the dirty bit.
func (m *Manager) Flush(id GlobalPageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.pageTable[id]
	if !ok {
		return nil
	}
	return m.flushFrame(idx)
}

// FlushAll flushes every resident dirty frame. The candidate list is
// collected under the pool lock, then each frame is written out on its
// own goroutine (re-acquiring the lock per frame, the same as a single
// Flush call would) so disk writes for independent tables overlap
// instead of serializing behind one long-held lock.
func (m *Manager) FlushAll() error {
	m.mu.Lock()
	var dirty []int
	for idx, f := range m.frames {
		if f != nil && f.page.Dirty {
			dirty = append(dirty, idx)
		}
	}
	m.mu.Unlock()

	var g errgroup.Group
	for _, idx := range dirty {
		idx := idx
		g.Go(func() error {
			m.mu.Lock()
			defer m.mu.Unlock()
			return m.flushFrame(idx)
		})
	}
	return g.Wait()
}

func (m *Manager) flushFrame(idx int) error {
	f := m.frames[idx]
	if f == nil || !f.page.Dirty {
		return nil
	}
	if err := m.disk.WritePage(f.id.TableID, f.id.PageID, f.page.Data[:]); err != nil {
		return err
	}
	f.page.Dirty = false
	return nil
}

// victim selects a frame to reuse: free list first, else the
// least-recently-used unpinned frame. Fails with KindStorage
// "buffer-pool-full" when neither is available.
func (m *Manager) victim() (int, error) {
	if len(m.free) > 0 {
		idx := m.free[len(m.free)-1]
		m.free = m.free[:len(m.free)-1]
		return idx, nil
	}
	if m.lru.Len() == 0 {
		dblog.WithComponent("buffer").Warn().Int("capacity", m.capacity).Msg("buffer pool exhausted, no unpinned frame to evict")
		return 0, dberr.New(dberr.KindStorage, "buffer pool is full")
	}
	front := m.lru.Front()
	idx := front.Value.(int)
	m.lru.Remove(front)
	delete(m.lruElem, idx)

	f := m.frames[idx]
	if f.page.Dirty {
		if err := m.disk.WritePage(f.id.TableID, f.id.PageID, f.page.Data[:]); err != nil {
			return 0, err
		}
	}
	delete(m.pageTable, f.id)
	return idx, nil
}

func (m *Manager) pushLRU(idx int) {
	if _, ok := m.lruElem[idx]; ok {
		return
	}
	m.lruElem[idx] = m.lru.PushBack(idx)
}

func (m *Manager) removeFromLRU(idx int) {
	if e, ok := m.lruElem[idx]; ok {
		m.lru.Remove(e)
		delete(m.lruElem, idx)
	}
}
