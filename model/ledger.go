package model

import "fmt"

// Unspent transaction output. All UTXO are aggregated as a ledger, the ledger at the tail of the
// blockchain is the authoritative one.
type UTXO struct {
	// Owner of the output.
	Owner PublicKey
	// Nonce of the transaction that created the output. Together with Owner, it identifies the unique output.
	Nonce uint64
}

// String returns the identifier of the output in "{owner_hex}-{nonce}" form.
func (u UTXO) String() string {
	return fmt.Sprintf("%s-%d", u.Owner, u.Nonce)
}

// Ledger is simply a pool of UTXO, valued at the amount each output carries.
type Ledger struct {
	L map[UTXO]uint64
}

func NewLedger() Ledger {
	return Ledger{
		L: make(map[UTXO]uint64),
	}
}
