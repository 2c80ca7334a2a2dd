package utils

import (
	"crypto/ed25519"
	"fmt"
	"runtime"

	"github.com/Luismorlan/utxo_ledger/model"
	"golang.org/x/sync/errgroup"
)

// GetTransactionBytes concats sender, receiver, amount and nonce. Amount and nonce are little endian.
// The signature is never part of it.
func GetTransactionBytes(t *model.Transaction) []byte {
	data := make([]byte, 0, 2*len(t.Sender)+16)
	data = append(data, t.Sender[:]...)
	data = append(data, t.Receiver[:]...)
	data = append(data, Uint64ToBytes(t.Amount)...)
	data = append(data, Uint64ToBytes(t.Nonce)...)
	return data
}

// CalcTransactionID hashes the current content of the transaction.
func CalcTransactionID(t *model.Transaction) model.Hash {
	return SHA256(GetTransactionBytes(t))
}

// CreateTransaction builds an unsigned transaction and derives its id.
func CreateTransaction(sender, receiver model.PublicKey, amount, nonce uint64) *model.Transaction {
	tx := &model.Transaction{
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
		Nonce:    nonce,
	}
	tx.ID = CalcTransactionID(tx)
	return tx
}

// SignTransaction signs the transaction id. The key must belong to the sender.
func SignTransaction(t *model.Transaction, sk ed25519.PrivateKey) error {
	if len(sk) != ed25519.PrivateKeySize {
		return model.ErrKeyMismatch
	}
	if GetPublicKey(sk) != t.Sender {
		return model.ErrKeyMismatch
	}
	t.Signature = Sign(t.ID[:], sk)
	return nil
}

// CheckTransaction returns ErrInvalidSignature when the transaction is unsigned, its id no longer
// matches its content, or the signature does not verify under the sender key.
func CheckTransaction(t *model.Transaction) error {
	if !t.IsSigned() {
		return fmt.Errorf("%w: transaction %s is not signed", model.ErrInvalidSignature, t.ID)
	}
	if CalcTransactionID(t) != t.ID {
		return fmt.Errorf("%w: transaction %s content does not match its id", model.ErrInvalidSignature, t.ID)
	}
	if !Verify(t.ID[:], t.Sender, t.Signature) {
		return fmt.Errorf("%w: transaction %s", model.ErrInvalidSignature, t.ID)
	}
	return nil
}

// VerifyTransaction is safe to call concurrently, it never mutates the transaction.
func VerifyTransaction(t *model.Transaction) bool {
	return CheckTransaction(t) == nil
}

// VerifyTransactions checks every signature in parallel and returns the first failure.
func VerifyTransactions(txs []model.Transaction) error {
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := range txs {
		tx := &txs[i]
		g.Go(func() error {
			return CheckTransaction(tx)
		})
	}
	return g.Wait()
}

// IsValidTransaction is the admission check run before a transaction is staged:
// the sender must hold at least the amount and the signature must verify.
func IsValidTransaction(t *model.Transaction, senderBalance uint64) error {
	if senderBalance < t.Amount {
		return fmt.Errorf("%w: has %d, needs %d", model.ErrInsufficientBalance, senderBalance, t.Amount)
	}
	return CheckTransaction(t)
}
