package model

import "errors"

var (
	// ErrInvalidSignature is returned when a signature is absent or does not verify.
	ErrInvalidSignature = errors.New("invalid transaction signature")
	// ErrKeyMismatch is returned when signing with a key that does not belong to the sender.
	ErrKeyMismatch = errors.New("signing key does not match transaction sender")
	// ErrDuplicateTransaction is returned when a transaction with the same id is already staged.
	ErrDuplicateTransaction = errors.New("transaction already in pool")
	// ErrTransactionReplayed is returned when a transaction id was already applied by a block of the chain.
	ErrTransactionReplayed = errors.New("transaction already applied to chain")
	// ErrMempoolFull is returned when the pool already holds as many transactions as its capacity allows.
	ErrMempoolFull = errors.New("transaction pool is full")
	// ErrChainLinkageMismatch is returned when a block does not extend the current tail.
	ErrChainLinkageMismatch = errors.New("block does not link to chain tail")
	// ErrInvalidMerkleRoot is returned when the header root does not commit to the block transactions.
	ErrInvalidMerkleRoot = errors.New("merkle root does not match transactions")
	// ErrUnknownOrSpentInput is returned when the output a transaction consumes is not in the ledger.
	ErrUnknownOrSpentInput = errors.New("transaction input is unknown or already spent")
	// ErrInsufficientBalance is returned when the value available is lower than the transfer amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidConfig is returned when a config file cannot be parsed or holds out of range values.
	ErrInvalidConfig = errors.New("invalid config")
)
