package utils

import (
	"fmt"

	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/jinzhu/copier"
)

// CreateInputUtxo returns the output a transaction consumes: the sender's slot at nonce-1,
// or slot 0 for a sender's first transaction.
func CreateInputUtxo(tx *model.Transaction) model.UTXO {
	nonce := tx.Nonce
	if nonce > 0 {
		nonce--
	}
	return model.UTXO{Owner: tx.Sender, Nonce: nonce}
}

// CreateOutputUtxo returns the output a transaction produces for its receiver.
func CreateOutputUtxo(tx *model.Transaction) model.UTXO {
	return model.UTXO{Owner: tx.Receiver, Nonce: tx.Nonce}
}

// copier refuses struct map keys under DeepCopy unless a converter handles them.
var utxoKeyConverter = copier.TypeConverter{
	SrcType: model.UTXO{},
	DstType: model.UTXO{},
	Fn: func(src interface{}) (interface{}, error) {
		u, ok := src.(model.UTXO)
		if !ok {
			return nil, fmt.Errorf("unexpected utxo key type %T", src)
		}
		return u, nil
	},
}

// CopyLedger returns a deep copy, changes to it are never visible in l.
func CopyLedger(l *model.Ledger) (model.Ledger, error) {
	c := model.NewLedger()
	opt := copier.Option{DeepCopy: true, Converters: []copier.TypeConverter{utxoKeyConverter}}
	if err := copier.CopyWithOption(&c, l, opt); err != nil {
		return model.Ledger{}, err
	}
	if c.L == nil {
		c.L = make(map[model.UTXO]uint64)
	}
	return c, nil
}

// Handle transaction:
// 1. The input must be an unspent output of the ledger.
// 2. The input must carry at least the transferred amount.
// 3. Claim the input and store the output.
// The ledger is only changed when the transaction is valid.
func HandleTransaction(tx *model.Transaction, l *model.Ledger) error {
	in := CreateInputUtxo(tx)
	value, ok := l.L[in]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrUnknownOrSpentInput, in)
	}
	if value < tx.Amount {
		return fmt.Errorf("%w: input %s holds %d, needs %d", model.ErrInsufficientBalance, in, value, tx.Amount)
	}

	delete(l.L, in)
	l.L[CreateOutputUtxo(tx)] += tx.Amount
	return nil
}

// Handle a bunch of transactions in order, each one sees the outputs of the previous ones.
// Note that ledger will be changed directly and is left half applied on failure, when passing
// ledger to this function, be sure to pass a deep copy.
func HandleTransactions(txs []model.Transaction, l *model.Ledger) error {
	for i := range txs {
		if err := HandleTransaction(&txs[i], l); err != nil {
			return fmt.Errorf("transaction %d (%s): %w", i, txs[i].ID, err)
		}
	}
	return nil
}

// GetUtxoForPublicKey filters the ledger down to outputs owned by pk.
func GetUtxoForPublicKey(l *model.Ledger, pk model.PublicKey) model.Ledger {
	res := model.NewLedger()
	for utxo, value := range l.L {
		if utxo.Owner == pk {
			res.L[utxo] = value
		}
	}
	return res
}

// GetBalance sums the outputs owned by pk.
func GetBalance(l *model.Ledger, pk model.PublicKey) uint64 {
	var total uint64
	for utxo, value := range l.L {
		if utxo.Owner == pk {
			total += value
		}
	}
	return total
}
