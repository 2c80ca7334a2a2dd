package full_node

import (
	"crypto/ed25519"
	"sync"
	"testing"

	"github.com/Luismorlan/utxo_ledger/config"
	"github.com/Luismorlan/utxo_ledger/mempool"
	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/Luismorlan/utxo_ledger/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAccount struct {
	sk ed25519.PrivateKey
	pk model.PublicKey
}

func newTestAccount(t *testing.T) testAccount {
	sk, pk, err := utils.GenerateKeyPair()
	require.NoError(t, err)
	return testAccount{sk: sk, pk: pk}
}

func (a testAccount) transfer(t *testing.T, to testAccount, amount, nonce uint64) model.Transaction {
	tx := utils.CreateTransaction(a.pk, to.pk, amount, nonce)
	require.NoError(t, utils.SignTransaction(tx, a.sk))
	return *tx
}

func newTestNode(t *testing.T, allocs ...model.GenesisAlloc) *FullNode {
	c := config.Default()
	for _, a := range allocs {
		c.Genesis = append(c.Genesis, config.Allocation{Address: a.Owner.String(), Amount: a.Amount})
	}
	node, err := NewFullNode(c, mempool.NewTxPool(c.MempoolCapacity), prometheus.NewRegistry())
	require.NoError(t, err)
	return node
}

func ledgerSnapshot(t *testing.T, node *FullNode) model.Ledger {
	l, err := node.GetLedgerSnapshot()
	require.NoError(t, err)
	return l
}

func TestNewFullNode(t *testing.T) {
	a := newTestAccount(t)
	node := newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100}, model.GenesisAlloc{Owner: a.pk, Amount: 5})

	assert.NotEmpty(t, node.ID())
	assert.Equal(t, 0, node.GetHeight())
	genesis := node.GetTail()
	assert.True(t, genesis.Header.PrevHash.IsZero())
	assert.Equal(t, "0000000000000000000000000000000000000000000000000000000000000000", genesis.Header.PrevHash.String())
	assert.Empty(t, genesis.Txs)
	assert.Equal(t, map[model.UTXO]uint64{{Owner: a.pk}: 105}, ledgerSnapshot(t, node).L)

	// Every node agrees on genesis.
	assert.Equal(t, node.GetTailHash(), newTestNode(t).GetTailHash())

	c := config.Default()
	c.BlockSize = 0
	_, err := NewFullNode(c, nil, nil)
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestAddBlockEndToEnd(t *testing.T) {
	a, b := newTestAccount(t), newTestAccount(t)
	node := newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100})

	tx := a.transfer(t, b, 40, 0)
	block := node.CreateBlock([]model.Transaction{tx})
	assert.Equal(t, node.GetTailHash(), block.Header.PrevHash)

	require.True(t, node.AddBlock(block))

	assert.Equal(t, 1, node.GetHeight())
	assert.Len(t, node.GetBlocksSnapshot(0), 2)
	l := ledgerSnapshot(t, node)
	assert.NotContains(t, l.L, model.UTXO{Owner: a.pk, Nonce: 0})
	assert.Equal(t, uint64(40), l.L[model.UTXO{Owner: b.pk, Nonce: 0}])
	assert.Equal(t, b.pk.String()+"-0", model.UTXO{Owner: b.pk, Nonce: 0}.String())
	assert.Equal(t, uint64(40), node.GetBalance(b.pk))
	assert.Equal(t, uint64(0), node.GetBalance(a.pk))
	assert.Equal(t, utils.HashBlock(block), node.GetTailHash())

	assert.Equal(t, float64(1), testutil.ToFloat64(node.metrics.BlocksAccepted))
	assert.Equal(t, float64(1), testutil.ToFloat64(node.metrics.ChainHeight))
}

func TestAddBlockRejectsWrongParent(t *testing.T) {
	a, b := newTestAccount(t), newTestAccount(t)
	node := newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100})

	block := utils.CreateNewBlock([]model.Transaction{a.transfer(t, b, 40, 0)}, utils.SHA256([]byte("stale")))
	err := node.HandleNewBlock(block)

	assert.ErrorIs(t, err, model.ErrChainLinkageMismatch)
	assert.Equal(t, 0, node.GetHeight())
	assert.Equal(t, uint64(100), node.GetBalance(a.pk))
	assert.Equal(t, float64(1), testutil.ToFloat64(node.metrics.BlocksRejected.WithLabelValues("linkage")))

	// The same block cannot be added twice, the second one no longer links to the tail.
	good := node.CreateBlock([]model.Transaction{a.transfer(t, b, 40, 0)})
	require.True(t, node.AddBlock(good))
	assert.ErrorIs(t, node.HandleNewBlock(good), model.ErrChainLinkageMismatch)
	assert.Equal(t, 1, node.GetHeight())
}

func TestAddBlockIsAtomic(t *testing.T) {
	a, b, c := newTestAccount(t), newTestAccount(t), newTestAccount(t)
	node := newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100})
	before := ledgerSnapshot(t, node)

	valid := a.transfer(t, b, 40, 0)
	// c owns nothing.
	invalid := c.transfer(t, b, 10, 3)
	block := node.CreateBlock([]model.Transaction{valid, invalid})

	err := node.HandleNewBlock(block)
	assert.ErrorIs(t, err, model.ErrUnknownOrSpentInput)
	assert.False(t, node.AddBlock(block))
	assert.Equal(t, before, ledgerSnapshot(t, node))
	assert.Equal(t, 0, node.GetHeight())
}

func TestAddBlockChainsInsideBlock(t *testing.T) {
	a, b, c := newTestAccount(t), newTestAccount(t), newTestAccount(t)
	node := newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100})

	block := node.CreateBlock([]model.Transaction{
		a.transfer(t, b, 40, 0),
		b.transfer(t, c, 30, 0),
	})
	require.NoError(t, node.HandleNewBlock(block))
	assert.Equal(t, map[model.UTXO]uint64{{Owner: c.pk}: 30}, ledgerSnapshot(t, node).L)

	// Spending the same output twice in one block fails as a whole.
	node = newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100})
	block = node.CreateBlock([]model.Transaction{
		a.transfer(t, b, 40, 0),
		a.transfer(t, c, 40, 1),
	})
	assert.ErrorIs(t, node.HandleNewBlock(block), model.ErrUnknownOrSpentInput)
	assert.Equal(t, uint64(100), node.GetBalance(a.pk))
}

func TestAddBlockHardening(t *testing.T) {
	a, b := newTestAccount(t), newTestAccount(t)
	node := newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100})

	// Unsigned.
	unsigned := *utils.CreateTransaction(a.pk, b.pk, 40, 0)
	assert.ErrorIs(t, node.HandleNewBlock(node.CreateBlock([]model.Transaction{unsigned})), model.ErrInvalidSignature)

	// Tampered after signing.
	tampered := a.transfer(t, b, 40, 0)
	tampered.Amount = 90
	assert.ErrorIs(t, node.HandleNewBlock(node.CreateBlock([]model.Transaction{tampered})), model.ErrInvalidSignature)

	// More than the spent output holds.
	assert.ErrorIs(t, node.HandleNewBlock(node.CreateBlock([]model.Transaction{a.transfer(t, b, 101, 0)})), model.ErrInsufficientBalance)

	// Transactions swapped for others after the root was computed.
	block := node.CreateBlock([]model.Transaction{a.transfer(t, b, 40, 0)})
	block.Txs = []model.Transaction{a.transfer(t, b, 50, 0)}
	assert.ErrorIs(t, node.HandleNewBlock(block), model.ErrInvalidMerkleRoot)

	assert.Equal(t, 0, node.GetHeight())
	assert.Equal(t, uint64(100), node.GetBalance(a.pk))
}

func TestConcurrentAddBlockOnSameTail(t *testing.T) {
	a, b := newTestAccount(t), newTestAccount(t)
	node := newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100})
	tail := node.GetTailHash()

	var blocks []*model.Block
	for i := 0; i < 8; i++ {
		blocks = append(blocks, utils.CreateNewBlockAt([]model.Transaction{a.transfer(t, b, uint64(10+i), 0)}, tail, uint64(i)))
	}

	var wg sync.WaitGroup
	results := make([]bool, len(blocks))
	for i := range blocks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = node.AddBlock(blocks[i])
		}(i)
	}
	wg.Wait()

	accepted := 0
	for i, ok := range results {
		if ok {
			accepted++
			assert.Equal(t, uint64(10+i), node.GetBalance(b.pk))
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, node.GetHeight())
}

func TestSubmitTransaction(t *testing.T) {
	a, b := newTestAccount(t), newTestAccount(t)
	node := newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100})

	tx := a.transfer(t, b, 40, 0)
	require.NoError(t, node.SubmitTransaction(&tx))
	assert.Equal(t, 1, node.PoolSize())
	assert.ErrorIs(t, node.SubmitTransaction(&tx), model.ErrDuplicateTransaction)

	tooMuch := a.transfer(t, b, 101, 1)
	assert.ErrorIs(t, node.SubmitTransaction(&tooMuch), model.ErrInsufficientBalance)

	unsigned := *utils.CreateTransaction(a.pk, b.pk, 1, 2)
	assert.ErrorIs(t, node.SubmitTransaction(&unsigned), model.ErrInvalidSignature)

	assert.Equal(t, 1, node.PoolSize())
	assert.Equal(t, float64(1), testutil.ToFloat64(node.metrics.TxsAdmitted))
	assert.Equal(t, float64(1), testutil.ToFloat64(node.metrics.TxsRejected.WithLabelValues("duplicate")))
	assert.Equal(t, float64(1), testutil.ToFloat64(node.metrics.PoolSize))
}

func TestMineBlock(t *testing.T) {
	a, b := newTestAccount(t), newTestAccount(t)
	node := newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100})

	tx := a.transfer(t, b, 40, 0)
	require.NoError(t, node.SubmitTransaction(&tx))

	block, err := node.MineBlock()
	require.NoError(t, err)
	assert.Len(t, block.Txs, 1)
	assert.Equal(t, 0, node.PoolSize())
	assert.Equal(t, uint64(40), node.GetBalance(b.pk))

	// Empty pool still produces a block.
	block, err = node.MineBlock()
	require.NoError(t, err)
	assert.Empty(t, block.Txs)
	assert.Equal(t, 2, node.GetHeight())

	// A rejected block drops what it drained.
	node = newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100})
	require.NoError(t, node.SubmitTransaction(&tx))
	node.m.Lock()
	node.blockchain.L.L[model.UTXO{Owner: a.pk, Nonce: 0}] = 10
	node.m.Unlock()
	_, err = node.MineBlock()
	assert.ErrorIs(t, err, model.ErrInsufficientBalance)
	assert.Equal(t, 0, node.PoolSize())
	assert.Equal(t, 0, node.GetHeight())
}

func TestAddBlockRemovesStagedTransactions(t *testing.T) {
	a, b := newTestAccount(t), newTestAccount(t)
	node := newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100})

	tx := a.transfer(t, b, 40, 0)
	require.NoError(t, node.SubmitTransaction(&tx))
	require.True(t, node.AddBlock(node.CreateBlock([]model.Transaction{tx})))
	assert.Equal(t, 0, node.PoolSize())
}

func TestBuildChainReplaysToSameLedger(t *testing.T) {
	a, b, c := newTestAccount(t), newTestAccount(t), newTestAccount(t)
	allocs := []model.GenesisAlloc{{Owner: a.pk, Amount: 100}}
	node := newTestNode(t, allocs...)

	require.True(t, node.AddBlock(node.CreateBlock([]model.Transaction{a.transfer(t, b, 40, 0)})))
	require.True(t, node.AddBlock(node.CreateBlock([]model.Transaction{b.transfer(t, c, 25, 0)})))

	blocks := node.GetBlocksSnapshot(0)
	bc, err := BuildChain(allocs, blocks)
	require.NoError(t, err)
	assert.Equal(t, ledgerSnapshot(t, node), bc.L)
	assert.Equal(t, 2, bc.Height())

	// Prefix replay.
	bc, err = BuildChain(allocs, blocks[:2])
	require.NoError(t, err)
	assert.Equal(t, uint64(40), bc.L.L[model.UTXO{Owner: b.pk}])

	// Different genesis, different chain.
	_, err = BuildChain(nil, blocks)
	assert.ErrorIs(t, err, model.ErrUnknownOrSpentInput)

	_, err = BuildChain(allocs, blocks[1:])
	assert.ErrorIs(t, err, model.ErrChainLinkageMismatch)
}

func TestGetBlocksSnapshot(t *testing.T) {
	node := newTestNode(t)
	require.True(t, node.AddBlock(node.CreateBlock(nil)))

	assert.Len(t, node.GetBlocksSnapshot(-1), 2)
	assert.Len(t, node.GetBlocksSnapshot(1), 1)
	assert.Nil(t, node.GetBlocksSnapshot(2))
}

func TestAcceptedBlockDoesNotShareMemory(t *testing.T) {
	a, b, c := newTestAccount(t), newTestAccount(t), newTestAccount(t)
	allocs := []model.GenesisAlloc{{Owner: a.pk, Amount: 100}}
	node := newTestNode(t, allocs...)

	block := node.CreateBlock([]model.Transaction{a.transfer(t, b, 40, 0)})
	require.True(t, node.AddBlock(block))
	want := utils.HashBlock(block)

	// The caller still owns its block.
	block.Txs[0].Receiver = c.pk
	block.Txs[0].Signature[0] ^= 0xff
	tail := node.GetTail()
	assert.Equal(t, b.pk, tail.Txs[0].Receiver)

	// Snapshots are copies too.
	tail.Txs[0].Amount = 7
	snap := node.GetBlocksSnapshot(0)
	snap[1].Txs[0].Amount = 7
	snap[1].Txs[0].Signature[0] ^= 0xff
	assert.Equal(t, uint64(40), node.GetTail().Txs[0].Amount)
	assert.Equal(t, want, node.GetTailHash())

	bc, err := BuildChain(allocs, node.GetBlocksSnapshot(0))
	require.NoError(t, err)
	assert.Equal(t, ledgerSnapshot(t, node), bc.L)
}

func TestReplayedTransactionIsRejected(t *testing.T) {
	a, b := newTestAccount(t), newTestAccount(t)
	node := newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100})

	tx := a.transfer(t, b, 40, 0)
	require.True(t, node.AddBlock(node.CreateBlock([]model.Transaction{tx})))
	// b funds slot a-0 again.
	require.True(t, node.AddBlock(node.CreateBlock([]model.Transaction{b.transfer(t, a, 40, 0)})))
	require.Equal(t, uint64(40), node.GetBalance(a.pk))

	assert.ErrorIs(t, node.SubmitTransaction(&tx), model.ErrTransactionReplayed)
	assert.Equal(t, 0, node.PoolSize())
	assert.ErrorIs(t, node.HandleNewBlock(node.CreateBlock([]model.Transaction{tx})), model.ErrTransactionReplayed)
	assert.Equal(t, 2, node.GetHeight())
	assert.Equal(t, float64(1), testutil.ToFloat64(node.metrics.BlocksRejected.WithLabelValues("replayed")))

	// Twice in one block, a self transfer would otherwise spend its own output again.
	self := a.transfer(t, a, 40, 0)
	node = newTestNode(t, model.GenesisAlloc{Owner: a.pk, Amount: 100})
	err := node.HandleNewBlock(node.CreateBlock([]model.Transaction{self, self}))
	assert.ErrorIs(t, err, model.ErrTransactionReplayed)
	assert.Equal(t, uint64(100), node.GetBalance(a.pk))
}
