package model

import (
	"crypto/ed25519"
	"encoding/hex"
)

// Hash is a SHA-256 digest. Transaction ids, merkle roots and block hashes all use it.
type Hash [32]byte

// Hex string of the hash, always 64 lowercase characters.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// PublicKey is an ed25519 verification key. The lowercase hex form of it is the account address.
type PublicKey [ed25519.PublicKeySize]byte

func (pk PublicKey) String() string {
	return hex.EncodeToString(pk[:])
}

type Transaction struct {
	// Hash of sender, receiver, amount and nonce. It is computed once when the transaction is
	// created and never re-derived, so a mismatch with the fields means the transaction was tampered.
	ID Hash
	// Public key of the sender, the signature must verify under it.
	Sender PublicKey
	// Public key of the receiver.
	Receiver PublicKey
	// How much value to transfer.
	Amount uint64
	// Per-sender counter. It indexes the output this transaction creates and the input it consumes.
	Nonce uint64
	// Signature over ID using the sender's private key. Empty means unsigned.
	Signature []byte
}

// IsSigned reports whether a signature is attached, it says nothing about its validity.
func (t *Transaction) IsSigned() bool {
	return len(t.Signature) > 0
}

// Clone returns a copy of t that shares no memory with it.
func (t Transaction) Clone() Transaction {
	if t.Signature != nil {
		t.Signature = append(make([]byte, 0, len(t.Signature)), t.Signature...)
	}
	return t
}
