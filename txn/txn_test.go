package txn

import "testing"

func TestBeginAssignsIncreasingIDs(t *testing.T) {
	m := NewManager()
	t1 := m.Begin()
	t2 := m.Begin()
	if t1.ID != 1 || t2.ID != 2 {
		t.Fatalf("expected ids 1,2, got %d,%d", t1.ID, t2.ID)
	}
}

func TestSharedLocksCoexist(t *testing.T) {
	lm := NewLockManager()
	if err := lm.Acquire(1, 10, Shared); err != nil {
		t.Fatalf("acquire 1: %v", err)
	}
	if err := lm.Acquire(2, 10, Shared); err != nil {
		t.Fatalf("expected second shared lock to be granted: %v", err)
	}
}

func TestExclusiveDeniedAgainstSharedOthers(t *testing.T) {
	lm := NewLockManager()
	if err := lm.Acquire(1, 10, Shared); err != nil {
		t.Fatalf("acquire 1: %v", err)
	}
	if err := lm.Acquire(2, 10, Shared); err != nil {
		t.Fatalf("acquire 2: %v", err)
	}
	if err := lm.Acquire(1, 10, Exclusive); err == nil {
		t.Fatalf("expected upgrade to be denied with other shared holders present")
	}
}

func TestUpgradeGrantedWhenSoleHolder(t *testing.T) {
	lm := NewLockManager()
	if err := lm.Acquire(1, 10, Shared); err != nil {
		t.Fatalf("acquire shared: %v", err)
	}
	if err := lm.Acquire(1, 10, Exclusive); err != nil {
		t.Fatalf("expected upgrade to succeed as sole holder: %v", err)
	}
}

func TestExclusiveDeniedAgainstOtherExclusive(t *testing.T) {
	lm := NewLockManager()
	if err := lm.Acquire(1, 10, Exclusive); err != nil {
		t.Fatalf("acquire 1: %v", err)
	}
	if err := lm.Acquire(2, 10, Shared); err == nil {
		t.Fatalf("expected shared request to be denied against exclusive holder")
	}
}

func TestReleaseAllFreesLocksForOtherTransactions(t *testing.T) {
	lm := NewLockManager()
	if err := lm.Acquire(1, 10, Exclusive); err != nil {
		t.Fatalf("acquire 1: %v", err)
	}
	lm.ReleaseAll(1)
	if err := lm.Acquire(2, 10, Exclusive); err != nil {
		t.Fatalf("expected lock to be free after release: %v", err)
	}
}

func TestCommitReleasesLocks(t *testing.T) {
	m := NewManager()
	t1 := m.Begin()
	if err := m.Locks.Acquire(t1.ID, 5, Exclusive); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := m.Commit(t1.ID); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got, _ := m.Get(t1.ID); got.State != StateCommitted {
		t.Fatalf("expected committed state, got %v", got.State)
	}
	if err := m.Locks.Acquire(99, 5, Exclusive); err != nil {
		t.Fatalf("expected lock free after commit: %v", err)
	}
}

func TestRollbackMarksAborted(t *testing.T) {
	m := NewManager()
	t1 := m.Begin()
	if err := m.Rollback(t1.ID); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	got, _ := m.Get(t1.ID)
	if got.State != StateAborted {
		t.Fatalf("expected aborted state, got %v", got.State)
	}
}

func TestActiveExcludesCompletedTransactions(t *testing.T) {
	m := NewManager()
	t1 := m.Begin()
	t2 := m.Begin()
	if err := m.Commit(t1.ID); err != nil {
		t.Fatalf("commit: %v", err)
	}
	active := m.Active()
	if len(active) != 1 || active[0] != t2.ID {
		t.Fatalf("expected only t2 active, got %v", active)
	}
}
