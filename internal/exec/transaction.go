package exec

import (
	"context"
	"sync"

	"github.com/ritamzico/helixdb/internal/store"
)

// TxState is the transaction lifecycle (spec §4.E): a transaction starts
// ReadOnly or Writing and ends exactly once, either Committed or
// Aborted. Further evaluation or a commit against a closed transaction
// fails; a further abort is a no-op.
type TxState int

const (
	StateReadOnly TxState = iota
	StateWriting
	StateCommitted
	StateAborted
)

func (s TxState) String() string {
	switch s {
	case StateReadOnly:
		return "ReadOnly"
	case StateWriting:
		return "Writing"
	case StateCommitted:
		return "Committed"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Transaction wraps a store.Tx with the state machine every operator
// pull and backend call checks before proceeding.
type Transaction struct {
	mu    sync.Mutex
	state TxState
	graph store.Tx
	store store.GraphStore
}

func beginTransaction(ctx context.Context, gs store.GraphStore, write bool) (*Transaction, error) {
	if write {
		tx, err := gs.BeginWrite(ctx)
		if err != nil {
			return nil, err
		}
		return &Transaction{state: StateWriting, graph: tx, store: gs}, nil
	}
	tx, err := gs.BeginRead(ctx)
	if err != nil {
		return nil, err
	}
	return &Transaction{state: StateReadOnly, graph: tx, store: gs}, nil
}

// checkOpen returns an error if the transaction has already ended.
func (t *Transaction) checkOpen() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateCommitted || t.state == StateAborted {
		return store.TxClosed()
	}
	return nil
}

func (t *Transaction) commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateCommitted || t.state == StateAborted {
		return store.TxClosed()
	}
	if err := t.store.Commit(ctx, t.graph); err != nil {
		t.state = StateAborted
		return err
	}
	t.state = StateCommitted
	return nil
}

func (t *Transaction) abort(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateCommitted || t.state == StateAborted {
		return nil
	}
	t.state = StateAborted
	return t.store.Abort(ctx, t.graph)
}

// State reports the transaction's current lifecycle state.
func (t *Transaction) State() TxState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
