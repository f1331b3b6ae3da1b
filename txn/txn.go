// Package txn implements transaction bookkeeping and a table-granularity
// two-phase lock manager. Locks are held until commit or rollback
// (strict 2PL); rollback here only releases locks and marks state —
// undoing data changes is left to the executor and the recovery
// routine, driven from the WAL.
package txn

import (
	"strconv"
	"sync"

	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/internal/metrics"
)

// State is a transaction's lifecycle stage.
type State int

const (
	StateActive State = iota
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Mode is a lock's acquisition mode.
type Mode int

const (
	Shared Mode = iota
	Exclusive
)

// Transaction tracks one in-flight or completed transaction's state.
type Transaction struct {
	ID    uint64
	State State
}

type lockState struct {
	mode    Mode
	holders map[uint64]bool
}

// LockManager grants table-granularity shared/exclusive locks to
// transactions and enforces strict 2PL: once acquired, a lock is held
// until the owning transaction releases all of its locks at commit or
// rollback.
type LockManager struct {
	mu    sync.Mutex
	locks map[uint32]*lockState
	// held indexes, per transaction, which tables it currently holds a
	// lock on — used by ReleaseAll.
	held map[uint64]map[uint32]bool
}

// NewLockManager returns an empty lock manager.
func NewLockManager() *LockManager {
	return &LockManager{
		locks: make(map[uint32]*lockState),
		held:  make(map[uint64]map[uint32]bool),
	}
}

// Acquire grants transID a lock of mode on tableID, or returns a
// KindTransaction error if the request conflicts with an existing
// holder. Decision table:
//   - no lock held: grant.
//   - shared held, request shared: grant, add as a co-holder.
//   - shared held by others, request exclusive: deny.
//   - shared held solely by transID, request exclusive: grant (upgrade).
//   - exclusive held by transID, any request: grant (already exclusive).
//   - exclusive held by another transaction: deny.
func (lm *LockManager) Acquire(transID uint64, tableID uint32, mode Mode) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	ls, exists := lm.locks[tableID]
	if !exists {
		lm.locks[tableID] = &lockState{mode: mode, holders: map[uint64]bool{transID: true}}
		lm.markHeld(transID, tableID)
		return nil
	}

	if ls.holders[transID] {
		if mode == Shared || ls.mode == Exclusive {
			return nil
		}
		// transID holds shared, wants exclusive: grant only if sole holder.
		if len(ls.holders) == 1 {
			ls.mode = Exclusive
			return nil
		}
		metrics.LockDenials.WithLabelValues(tableIDLabel(tableID)).Inc()
		return dberr.Newf(dberr.KindTransaction, "lock upgrade denied on table %d: other shared holders present", tableID)
	}

	if ls.mode == Shared && mode == Shared {
		ls.holders[transID] = true
		lm.markHeld(transID, tableID)
		return nil
	}

	metrics.LockDenials.WithLabelValues(tableIDLabel(tableID)).Inc()
	return dberr.Newf(dberr.KindTransaction, "lock denied on table %d: held in conflicting mode", tableID)
}

func (lm *LockManager) markHeld(transID uint64, tableID uint32) {
	if lm.held[transID] == nil {
		lm.held[transID] = make(map[uint32]bool)
	}
	lm.held[transID][tableID] = true
}

// ReleaseAll releases every lock held by transID.
func (lm *LockManager) ReleaseAll(transID uint64) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	for tableID := range lm.held[transID] {
		ls, ok := lm.locks[tableID]
		if !ok {
			continue
		}
		delete(ls.holders, transID)
		if len(ls.holders) == 0 {
			delete(lm.locks, tableID)
		}
	}
	delete(lm.held, transID)
}

func tableIDLabel(tableID uint32) string {
	return strconv.FormatUint(uint64(tableID), 10)
}

// Manager assigns transaction ids and tracks their lifecycle state
// alongside a shared LockManager.
type Manager struct {
	mu     sync.Mutex
	nextID uint64
	txns   map[uint64]*Transaction
	Locks  *LockManager
}

// NewManager returns a transaction manager whose first Begin() yields
// transaction id 1.
func NewManager() *Manager {
	return &Manager{
		nextID: 1,
		txns:   make(map[uint64]*Transaction),
		Locks:  NewLockManager(),
	}
}

// Begin starts a new active transaction.
func (m *Manager) Begin() *Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &Transaction{ID: m.nextID, State: StateActive}
	m.txns[t.ID] = t
	m.nextID++
	return t
}

// Commit marks transID committed and releases all of its locks.
func (m *Manager) Commit(transID uint64) error {
	m.mu.Lock()
	t, ok := m.txns[transID]
	m.mu.Unlock()
	if !ok {
		return dberr.Newf(dberr.KindTransaction, "unknown transaction %d", transID)
	}
	t.State = StateCommitted
	m.Locks.ReleaseAll(transID)
	return nil
}

// Rollback marks transID aborted and releases all of its locks. It
// does not undo any data changes; callers must do that (typically via
// the WAL-driven undo pass) before calling Rollback.
func (m *Manager) Rollback(transID uint64) error {
	m.mu.Lock()
	t, ok := m.txns[transID]
	m.mu.Unlock()
	if !ok {
		return dberr.Newf(dberr.KindTransaction, "unknown transaction %d", transID)
	}
	t.State = StateAborted
	m.Locks.ReleaseAll(transID)
	return nil
}

// Get returns the transaction for transID, if known.
func (m *Manager) Get(transID uint64) (*Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[transID]
	return t, ok
}

// Active returns the ids of all transactions still in StateActive, for
// recovery's analyze pass.
func (m *Manager) Active() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uint64
	for id, t := range m.txns {
		if t.State == StateActive {
			out = append(out, id)
		}
	}
	return out
}
