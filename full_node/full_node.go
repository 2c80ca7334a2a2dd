package full_node

import (
	"fmt"
	"sync"

	"github.com/Luismorlan/utxo_ledger/config"
	"github.com/Luismorlan/utxo_ledger/mempool"
	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/Luismorlan/utxo_ledger/utils"
	"github.com/prometheus/client_golang/prometheus"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

// A full node should maintain the blockchain, and update the blockchain.
type FullNode struct {
	// The blockchain it needs to maintain, ledger included.
	blockchain *model.Blockchain
	// Transaction pool it need to maintain. Incoming transaction are added to this pool.
	txPool mempool.Mempool
	// Blockchain config.
	config config.AppConfig
	metrics *Metrics
	// A single mutex for changing internal state. Every read of the tail and every block
	// application happens under it.
	m sync.RWMutex
	// A unique indentifier of this Fullnode, this doesn't impact consensus, only
	// used for easier implementation.
	uuid string
	log  *log.Entry
}

// NewFullNode creates a brand new full node, which contains a genesis block seeded with the
// allocations of the config. Metrics are registered on reg when it is not nil.
func NewFullNode(c config.AppConfig, pool mempool.Mempool, reg prometheus.Registerer) (*FullNode, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	allocs, err := c.GenesisAllocs()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		pool = mempool.NewTxPool(c.MempoolCapacity)
	}
	bc := model.NewBlockChain(allocs...)
	id := uuid.NewV4().String()
	f := &FullNode{
		blockchain: &bc,
		txPool:     pool,
		config:     c,
		metrics:    NewMetrics(reg),
		uuid:       id,
		log:        log.WithField("node", id),
	}
	f.metrics.PoolSize.Set(float64(pool.Size()))
	f.log.WithField("genesis", utils.HashBlock(bc.Tail())).Infof("full node created with %d genesis allocations", len(allocs))
	return f, nil
}

func (f *FullNode) ID() string {
	return f.uuid
}

// SubmitTransaction validates tx against the tail ledger and stages it in the pool.
// The sender must own at least tx.Amount, the signature must verify and no block may have
// applied tx already.
func (f *FullNode) SubmitTransaction(tx *model.Transaction) error {
	f.m.RLock()
	balance := utils.GetBalance(&f.blockchain.L, tx.Sender)
	_, applied := f.blockchain.Applied[tx.ID]
	f.m.RUnlock()

	err := utils.IsValidTransaction(tx, balance)
	if err == nil && applied {
		err = fmt.Errorf("%w: %s", model.ErrTransactionReplayed, tx.ID)
	}
	if err == nil {
		err = f.txPool.Add(tx)
	}
	if err != nil {
		f.metrics.TxsRejected.WithLabelValues(reason(err)).Inc()
		f.log.WithError(err).Debugf("transaction %s rejected", tx.ID)
		return err
	}
	f.metrics.TxsAdmitted.Inc()
	f.metrics.PoolSize.Set(float64(f.txPool.Size()))
	f.log.Debugf("transaction %s staged, pool size %d", tx.ID, f.txPool.Size())
	return nil
}

// CreateBlock wraps txs in a block on top of the current tail.
func (f *FullNode) CreateBlock(txs []model.Transaction) *model.Block {
	return utils.CreateNewBlock(txs, f.GetTailHash())
}

// CreateNewBlock drains up to BlockSize transactions from the pool into a block on top of the
// current tail. The drained transactions are no longer staged.
func (f *FullNode) CreateNewBlock() *model.Block {
	txs := f.txPool.Drain(f.config.BlockSize)
	f.metrics.PoolSize.Set(float64(f.txPool.Size()))
	return f.CreateBlock(txs)
}

// Handle the new block received.
// This function should:
// 1. Validate the block.
//   a. Parent is the tail of the chain.
//   b. Merkle root commits to the transactions.
//   c. Every transaction is signed by its sender.
//   d. No transaction was applied before, by the chain or earlier in the block.
//   e. Each transaction spends an existing output holding enough value, in block order.
// 2. Add a copy of the block to blockchain and swap in the new ledger.
// On error the chain and the ledger are left untouched. The caller keeps ownership of pendingBlock.
func (f *FullNode) HandleNewBlock(pendingBlock *model.Block) error {
	// Lock mutex because we are changing the state of blockchain.
	f.m.Lock()
	err := applyBlock(f.blockchain, pendingBlock)
	height := f.blockchain.Height()
	f.m.Unlock()

	if err != nil {
		f.metrics.BlocksRejected.WithLabelValues(reason(err)).Inc()
		f.log.WithError(err).Warn("block rejected")
		return err
	}

	// Transactions in the block must not be mined again.
	f.txPool.Remove(utils.GetTransactionIDs(pendingBlock.Txs)...)

	f.metrics.BlocksAccepted.Inc()
	f.metrics.ChainHeight.Set(float64(height))
	f.metrics.PoolSize.Set(float64(f.txPool.Size()))
	f.log.WithField("height", height).Infof("block %s added with %d transactions", utils.HashBlock(pendingBlock), len(pendingBlock.Txs))
	return nil
}

// AddBlock reports whether the block was appended, see HandleNewBlock.
func (f *FullNode) AddBlock(b *model.Block) bool {
	return f.HandleNewBlock(b) == nil
}

// MineBlock creates a block from the pool and adds it. When the block is rejected, the drained
// transactions are dropped with it.
func (f *FullNode) MineBlock() (*model.Block, error) {
	b := f.CreateNewBlock()
	if err := f.HandleNewBlock(b); err != nil {
		if len(b.Txs) > 0 {
			f.log.Warnf("dropping %d transactions of rejected block", len(b.Txs))
		}
		return nil, err
	}
	return b, nil
}

// applyBlock validates a copy of pendingBlock against the tail of bc and appends it. Transactions
// are applied to a copy of the ledger that only replaces bc.L once all of them succeed.
func applyBlock(bc *model.Blockchain, pendingBlock *model.Block) error {
	b := pendingBlock.Clone()
	tailHash := utils.HashBlock(bc.Tail())
	if b.Header.PrevHash != tailHash {
		return fmt.Errorf("%w: block parent %s, tail %s", model.ErrChainLinkageMismatch, b.Header.PrevHash, tailHash)
	}
	if err := utils.IsValidMerkleRoot(&b); err != nil {
		return err
	}
	if err := utils.VerifyTransactions(b.Txs); err != nil {
		return err
	}
	ids := make(map[model.Hash]struct{}, len(b.Txs))
	for i := range b.Txs {
		id := b.Txs[i].ID
		_, inChain := bc.Applied[id]
		_, inBlock := ids[id]
		if inChain || inBlock {
			return fmt.Errorf("transaction %d: %w: %s", i, model.ErrTransactionReplayed, id)
		}
		ids[id] = struct{}{}
	}

	// Here we need to make a deep copy of the entire tail ledger because we are changing it.
	l, err := utils.CopyLedger(&bc.L)
	if err != nil {
		return err
	}
	if err := utils.HandleTransactions(b.Txs, &l); err != nil {
		return err
	}

	bc.Blocks = append(bc.Blocks, b)
	bc.L = l
	for id := range ids {
		bc.Applied[id] = struct{}{}
	}
	return nil
}

// BuildChain replays blocks on top of a genesis seeded with allocs. blocks[0] must be that genesis.
// The resulting ledger only depends on allocs and blocks.
func BuildChain(allocs []model.GenesisAlloc, blocks []model.Block) (*model.Blockchain, error) {
	bc := model.NewBlockChain(allocs...)
	if len(blocks) == 0 {
		return &bc, nil
	}
	if utils.HashBlock(&blocks[0]) != utils.HashBlock(bc.Tail()) {
		return nil, fmt.Errorf("%w: first block is not genesis", model.ErrChainLinkageMismatch)
	}
	for i := 1; i < len(blocks); i++ {
		if err := applyBlock(&bc, &blocks[i]); err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
	}
	return &bc, nil
}

func (f *FullNode) GetHeight() int {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.blockchain.Height()
}

// GetTail returns a copy of the tail block.
func (f *FullNode) GetTail() model.Block {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.blockchain.Tail().Clone()
}

func (f *FullNode) GetTailHash() model.Hash {
	f.m.RLock()
	defer f.m.RUnlock()
	return utils.HashBlock(f.blockchain.Tail())
}

// GetBlocksSnapshot returns copies of the blocks from height from to the tail.
func (f *FullNode) GetBlocksSnapshot(from int) []model.Block {
	f.m.RLock()
	defer f.m.RUnlock()
	if from < 0 {
		from = 0
	}
	if from >= len(f.blockchain.Blocks) {
		return nil
	}
	res := make([]model.Block, 0, len(f.blockchain.Blocks)-from)
	for i := from; i < len(f.blockchain.Blocks); i++ {
		res = append(res, f.blockchain.Blocks[i].Clone())
	}
	return res
}

// Return a deep copy of the ledger at tail.
func (f *FullNode) GetLedgerSnapshot() (model.Ledger, error) {
	f.m.RLock()
	defer f.m.RUnlock()
	return utils.CopyLedger(&f.blockchain.L)
}

// GetUtxoForPublicKey returns all outputs of the tail ledger owned by pk.
func (f *FullNode) GetUtxoForPublicKey(pk model.PublicKey) model.Ledger {
	f.m.RLock()
	defer f.m.RUnlock()
	return utils.GetUtxoForPublicKey(&f.blockchain.L, pk)
}

func (f *FullNode) GetBalance(pk model.PublicKey) uint64 {
	f.m.RLock()
	defer f.m.RUnlock()
	return utils.GetBalance(&f.blockchain.L, pk)
}

func (f *FullNode) PoolSize() int {
	return f.txPool.Size()
}
