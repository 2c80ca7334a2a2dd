package model

type BlockHeader struct {
	// Hash of the previous block. All zeros for genesis.
	PrevHash Hash
	// Merkle root of the transaction ids, in block order.
	MerkleRoot Hash
	// Creation time in unix seconds.
	Timestamp uint64
	// Reserved for a proof of work search, stays 0.
	Nonce uint32
}

type Block struct {
	Header BlockHeader
	// Transactions for this block, committed through Header.MerkleRoot.
	Txs []Transaction
}

// Clone returns a copy of b whose transactions and signatures share no memory with b.
func (b *Block) Clone() Block {
	c := Block{Header: b.Header}
	if b.Txs != nil {
		c.Txs = make([]Transaction, len(b.Txs))
		for i := range b.Txs {
			c.Txs[i] = b.Txs[i].Clone()
		}
	}
	return c
}

// GenesisAlloc seeds the genesis ledger with an output for Owner at nonce slot 0.
type GenesisAlloc struct {
	Owner  PublicKey
	Amount uint64
}

// Blockchain is an append only list of blocks plus the ledger produced by replaying them.
// Blocks reference their parent by hash only, the first one is genesis.
type Blockchain struct {
	Blocks []Block
	// Ledger after the last block.
	L Ledger
	// Ids of every transaction applied by Blocks.
	Applied map[Hash]struct{}
}

// NewBlockChain creates a blockchain holding only the genesis block, with allocs seeded in the ledger.
// Genesis has no transactions and a zero timestamp so every node derives the same genesis hash.
func NewBlockChain(allocs ...GenesisAlloc) Blockchain {
	l := NewLedger()
	for _, a := range allocs {
		l.L[UTXO{Owner: a.Owner, Nonce: 0}] += a.Amount
	}
	return Blockchain{
		Blocks:  []Block{{Header: BlockHeader{}}},
		L:       l,
		Applied: make(map[Hash]struct{}),
	}
}

// Tail returns the most recently appended block.
func (bc *Blockchain) Tail() *Block {
	return &bc.Blocks[len(bc.Blocks)-1]
}

func (bc *Blockchain) Height() int {
	return len(bc.Blocks) - 1
}
