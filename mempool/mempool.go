package mempool

import (
	"sync"

	"github.com/Luismorlan/utxo_ledger/model"
)

// Mempool stages transactions that are not in a block yet. Implementations must be safe for
// concurrent use.
type Mempool interface {
	// Add stages tx, it fails with ErrDuplicateTransaction when the id is already staged.
	Add(tx *model.Transaction) error
	// Admit is Add reporting only whether tx was staged.
	Admit(tx *model.Transaction) bool
	// Drain removes and returns up to maxCount transactions.
	Drain(maxCount int) []model.Transaction
	// Remove drops the given ids if staged.
	Remove(ids ...model.Hash)
	Size() int
}

// TxPool contains all pending transactions that haven't be checked in the blockchain.
// Drain hands transactions out in admission order.
type TxPool struct {
	mu sync.Mutex
	// Key is the transaction id, value is the transaction.
	txs map[model.Hash]model.Transaction
	// Admission order of the ids in txs.
	order []model.Hash
	// Max staged transactions, 0 means unbounded.
	capacity int
}

// NewTxPool creates a new transaction pool with no transaction at all.
func NewTxPool(capacity int) *TxPool {
	return &TxPool{
		txs:      make(map[model.Hash]model.Transaction),
		capacity: capacity,
	}
}

func (p *TxPool) Add(tx *model.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exist := p.txs[tx.ID]; exist {
		return model.ErrDuplicateTransaction
	}
	if p.capacity > 0 && len(p.txs) >= p.capacity {
		return model.ErrMempoolFull
	}
	p.txs[tx.ID] = *tx
	p.order = append(p.order, tx.ID)
	return nil
}

func (p *TxPool) Admit(tx *model.Transaction) bool {
	return p.Add(tx) == nil
}

func (p *TxPool) Drain(maxCount int) []model.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	if maxCount <= 0 {
		return nil
	}
	var res []model.Transaction
	i := 0
	for ; i < len(p.order) && len(res) < maxCount; i++ {
		id := p.order[i]
		tx, ok := p.txs[id]
		if !ok {
			// removed after admission
			continue
		}
		res = append(res, tx)
		delete(p.txs, id)
	}
	p.order = append([]model.Hash(nil), p.order[i:]...)
	return res
}

func (p *TxPool) Remove(ids ...model.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range ids {
		delete(p.txs, id)
	}
	order := p.order[:0]
	for _, id := range p.order {
		if _, ok := p.txs[id]; ok {
			order = append(order, id)
		}
	}
	p.order = order
}

func (p *TxPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.txs)
}
