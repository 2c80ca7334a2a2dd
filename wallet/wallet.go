package wallet

import (
	"crypto/ed25519"
	"fmt"

	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/Luismorlan/utxo_ledger/utils"
	log "github.com/sirupsen/logrus"
)

// Node is the part of a full node a wallet talks to.
type Node interface {
	SubmitTransaction(tx *model.Transaction) error
	GetUtxoForPublicKey(pk model.PublicKey) model.Ledger
}

// User signs and sends transactions to network.
//
// UTXOs is the wallet's own view of what it owns. It is updated by Mint, Credit and
// ApplyTransaction and is never checked against the chain ledger, so the two can drift.
// SyncFromNode overwrites it with the ledger's view. A Wallet is not safe for concurrent use.
type Wallet struct {
	keys    ed25519.PrivateKey
	address model.PublicKey
	UTXOs   map[model.UTXO]uint64
	// Nonce of the next transaction this wallet creates.
	nonce uint64
}

// NewWallet generates a fresh key pair.
func NewWallet() (*Wallet, error) {
	sk, _, err := utils.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return NewWalletFromKey(sk), nil
}

func NewWalletFromKey(sk ed25519.PrivateKey) *Wallet {
	return &Wallet{
		keys:    sk,
		address: utils.GetPublicKey(sk),
		UTXOs:   make(map[model.UTXO]uint64),
	}
}

// NewWalletFromKeyFile loads the key at keyPath, or creates and saves one when create is set.
func NewWalletFromKeyFile(keyPath string, create bool) (*Wallet, error) {
	sk, err := utils.ParseKeyFile(keyPath, create)
	if err != nil {
		return nil, err
	}
	return NewWalletFromKey(sk), nil
}

func (w *Wallet) SaveKey(path string) error {
	return utils.SavePrivateKeyToFile(w.keys, path)
}

func (w *Wallet) GetPublicKey() model.PublicKey {
	return w.address
}

// Address is the hex encoded public key.
func (w *Wallet) Address() string {
	return w.address.String()
}

func (w *Wallet) Nonce() uint64 {
	return w.nonce
}

// GetBalance sums the locally tracked outputs.
func (w *Wallet) GetBalance() uint64 {
	var total uint64
	for _, v := range w.UTXOs {
		total += v
	}
	return total
}

// Mint credits amount to the output slot at the current nonce, without consuming the nonce.
// The returned output is what a ledger must be seeded with to honor the minted value.
func (w *Wallet) Mint(amount uint64) model.UTXO {
	utxo := model.UTXO{Owner: w.address, Nonce: w.nonce}
	w.Credit(utxo, amount)
	return utxo
}

// Credit records amount on utxo in the local view.
func (w *Wallet) Credit(utxo model.UTXO, amount uint64) {
	w.UTXOs[utxo] += amount
}

// CreateTransaction builds and signs a transfer with the current nonce, then advances the nonce.
// Balance is not checked, see ValidateTransaction. When the transaction is refused before any
// block accepts it, give the nonce back with ReleaseNonce.
func (w *Wallet) CreateTransaction(receiver model.PublicKey, amount uint64) (*model.Transaction, error) {
	tx := utils.CreateTransaction(w.address, receiver, amount, w.nonce)
	if err := utils.SignTransaction(tx, w.keys); err != nil {
		return nil, err
	}
	w.nonce++
	return tx, nil
}

// ReleaseNonce rewinds the nonce when tx is the last transaction this wallet created, so the
// next one reuses its slot. It reports whether the nonce moved.
func (w *Wallet) ReleaseNonce(tx *model.Transaction) bool {
	if tx.Sender != w.address || w.nonce == 0 || tx.Nonce != w.nonce-1 {
		return false
	}
	w.nonce--
	return true
}

// ValidateTransaction checks tx against this wallet's balance: the wallet must hold at least
// tx.Amount and the signature must verify.
func (w *Wallet) ValidateTransaction(tx *model.Transaction) error {
	return utils.IsValidTransaction(tx, w.GetBalance())
}

// ApplyTransaction reconciles the local view with a transaction that made it into a block.
// A transaction received by this wallet credits its output. A transaction sent by this wallet
// drops the output it consumed.
func (w *Wallet) ApplyTransaction(tx *model.Transaction) {
	if tx.Sender == w.address {
		delete(w.UTXOs, utils.CreateInputUtxo(tx))
	}
	if tx.Receiver == w.address {
		w.Credit(utils.CreateOutputUtxo(tx), tx.Amount)
	}
}

// ApplyBlock applies every transaction of b in order.
func (w *Wallet) ApplyBlock(b *model.Block) {
	for i := range b.Txs {
		w.ApplyTransaction(&b.Txs[i])
	}
}

// SyncFromNode replaces the local view with the outputs the node's ledger holds for this wallet.
func (w *Wallet) SyncFromNode(node Node) {
	l := node.GetUtxoForPublicKey(w.address)
	w.UTXOs = make(map[model.UTXO]uint64, len(l.L))
	for utxo, v := range l.L {
		w.UTXOs[utxo] = v
	}
}

// TransferMoney syncs with the node, checks the balance covers value, then signs a transaction
// to receiverPK and submits it.
func (w *Wallet) TransferMoney(node Node, receiverPK string, value uint64) (*model.Transaction, error) {
	w.SyncFromNode(node)
	pk, err := utils.HexToPublicKey(receiverPK)
	if err != nil {
		return nil, fmt.Errorf("failed to parse receiver: %w", err)
	}
	if balance := w.GetBalance(); balance < value {
		return nil, fmt.Errorf("%w: has %d, needs %d", model.ErrInsufficientBalance, balance, value)
	}
	tx, err := w.CreateTransaction(pk, value)
	if err != nil {
		return nil, err
	}
	if err := node.SubmitTransaction(tx); err != nil {
		log.WithError(err).Warnf("failed to send transaction %s to full node", tx.ID)
		w.ReleaseNonce(tx)
		return nil, err
	}
	return tx, nil
}
