package utils

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/Luismorlan/utxo_ledger/model"
)

func BytesToHex(bytes []byte) string {
	return hex.EncodeToString(bytes)
}

func HexToBytes(str string) ([]byte, error) {
	bytes, err := hex.DecodeString(str)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// Uint64ToBytes encodes i in little endian.
func Uint64ToBytes(i uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, i)
	return b
}

// Uint32ToBytes encodes i in little endian.
func Uint32ToBytes(i uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, i)
	return b
}

// HexToPublicKey parses an address back into a public key.
func HexToPublicKey(str string) (model.PublicKey, error) {
	var pk model.PublicKey
	bytes, err := HexToBytes(str)
	if err != nil {
		return pk, err
	}
	if len(bytes) != len(pk) {
		return pk, fmt.Errorf("address must be %d bytes, got %d", len(pk), len(bytes))
	}
	copy(pk[:], bytes)
	return pk, nil
}
