package utils

import (
	"fmt"
	"time"

	"github.com/Luismorlan/utxo_ledger/model"
)

// MerkleRoot reduces the ids pairwise, left to right, until one hash is left. An odd node at the end
// of a level is hashed with itself. No ids gives the zero hash and a single id is its own root.
func MerkleRoot(ids []model.Hash) model.Hash {
	if len(ids) == 0 {
		return model.Hash{}
	}

	level := make([]model.Hash, len(ids))
	copy(level, ids)
	for len(level) > 1 {
		next := make([]model.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, SHA256(left[:], right[:]))
		}
		level = next
	}
	return level[0]
}

// GetTransactionIDs returns the ids in block order.
func GetTransactionIDs(txs []model.Transaction) []model.Hash {
	ids := make([]model.Hash, len(txs))
	for i := range txs {
		ids[i] = txs[i].ID
	}
	return ids
}

// CreateNewBlock wraps the transactions in a block on top of prevHash, stamped with the current time.
func CreateNewBlock(txs []model.Transaction, prevHash model.Hash) *model.Block {
	return CreateNewBlockAt(txs, prevHash, uint64(time.Now().Unix()))
}

func CreateNewBlockAt(txs []model.Transaction, prevHash model.Hash, timestamp uint64) *model.Block {
	return &model.Block{
		Header: model.BlockHeader{
			PrevHash:   prevHash,
			MerkleRoot: MerkleRoot(GetTransactionIDs(txs)),
			Timestamp:  timestamp,
			Nonce:      0,
		},
		Txs: txs,
	}
}

// GetBlockBytes serializes the header: previous hash, merkle root, timestamp and nonce.
func GetBlockBytes(header *model.BlockHeader) []byte {
	var rawBlock []byte
	rawBlock = append(rawBlock, header.PrevHash[:]...)
	rawBlock = append(rawBlock, header.MerkleRoot[:]...)
	rawBlock = append(rawBlock, Uint64ToBytes(header.Timestamp)...)
	rawBlock = append(rawBlock, Uint32ToBytes(header.Nonce)...)
	return rawBlock
}

// HashBlock hashes the header only, transactions count through the merkle root.
func HashBlock(block *model.Block) model.Hash {
	return SHA256(GetBlockBytes(&block.Header))
}

// IsValidMerkleRoot checks the header commits to the transactions the block carries.
func IsValidMerkleRoot(block *model.Block) error {
	expected := MerkleRoot(GetTransactionIDs(block.Txs))
	if expected != block.Header.MerkleRoot {
		return fmt.Errorf("%w: header %s, computed %s", model.ErrInvalidMerkleRoot, block.Header.MerkleRoot, expected)
	}
	return nil
}
