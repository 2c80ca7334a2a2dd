package visualize

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/Luismorlan/utxo_ledger/utils"
	"github.com/bradleyjkemp/memviz"
)

// We re-define the visualize model here because the ledger model carries raw
// byte arrays that render as unreadable nodes.
type transaction struct {
	id       string
	sender   string
	receiver string
	amount   uint64
	nonce    uint64
	signed   bool
}

type block struct {
	height     int
	hash       string
	prevHash   string
	merkleRoot string
	timestamp  uint64
	txs        []transaction
	next       *block
}

// The string of public key and hash is just too long to render, instead we take only first 3 and last 3
// characters and replace the middle part with '...'. E.g. "abcdefghi" will be rendered as "abc...ghi"
func shortenString(s string) string {
	if len(s) < 9 {
		return s
	}
	return fmt.Sprintf("%s...%s", s[0:3], s[len(s)-3:])
}

func txToTx(tx *model.Transaction) transaction {
	return transaction{
		id:       shortenString(tx.ID.String()),
		sender:   shortenString(tx.Sender.String()),
		receiver: shortenString(tx.Receiver.String()),
		amount:   tx.Amount,
		nonce:    tx.Nonce,
		signed:   tx.IsSigned(),
	}
}

func blockToblock(b *model.Block, height int) *block {
	n := &block{
		height:     height,
		hash:       shortenString(utils.HashBlock(b).String()),
		prevHash:   shortenString(b.Header.PrevHash.String()),
		merkleRoot: shortenString(b.Header.MerkleRoot.String()),
		timestamp:  b.Header.Timestamp,
	}
	for i := range b.Txs {
		n.txs = append(n.txs, txToTx(&b.Txs[i]))
	}
	return n
}

// Build a linked list of the last d blocks, oldest first. d <= 0 renders the whole chain.
func constructData(blocks []model.Block, d int) *block {
	start := 0
	if d > 0 && d < len(blocks) {
		start = len(blocks) - d
	}
	var head, prev *block
	for i := start; i < len(blocks); i++ {
		n := blockToblock(&blocks[i], i)
		if prev == nil {
			head = n
		} else {
			prev.next = n
		}
		prev = n
	}
	return head
}

// Render writes the graphviz dot description of the last d blocks to w.
func Render(w io.Writer, blocks []model.Block, d int) {
	chain := constructData(blocks, d)
	memviz.Map(w, chain)
}

// RenderToFile writes the dot description to path, turn it into an image with `dot -Tpng`.
func RenderToFile(path string, blocks []model.Block, d int) error {
	buf := &bytes.Buffer{}
	Render(buf, blocks, d)
	return os.WriteFile(path, buf.Bytes(), 0644)
}
