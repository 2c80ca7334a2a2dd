package utils

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"

	"github.com/Luismorlan/utxo_ledger/model"
)

const privateKeyPEMType = "PRIVATE KEY"

// GenerateKeyPair generates a new ed25519 key pair.
func GenerateKeyPair() (ed25519.PrivateKey, model.PublicKey, error) {
	pub, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, model.PublicKey{}, err
	}
	var pk model.PublicKey
	copy(pk[:], pub)
	return sk, pk, nil
}

// GetPublicKey returns the address of the given private key.
func GetPublicKey(sk ed25519.PrivateKey) model.PublicKey {
	var pk model.PublicKey
	copy(pk[:], sk.Public().(ed25519.PublicKey))
	return pk
}

// PrivateKeyToBytes private key to PKCS#8 PEM bytes
func PrivateKeyToBytes(sk ed25519.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(sk)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: privateKeyPEMType, Bytes: der}), nil
}

// BytesToPrivateKey PEM bytes to private key
func BytesToPrivateKey(priv []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(priv)
	if block == nil || block.Type != privateKeyPEMType {
		return nil, errors.New("no private key found in pem data")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	sk, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not an ed25519 key")
	}
	return sk, nil
}

// Hash the concatenation of all parts using SHA256
func SHA256(parts ...[]byte) model.Hash {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var digest model.Hash
	copy(digest[:], h.Sum(nil))
	return digest
}

// Sign a message with provided private key.
func Sign(msg []byte, sk ed25519.PrivateKey) []byte {
	return ed25519.Sign(sk, msg)
}

// Verify the given signature matches the message. Malformed signatures are reported as invalid.
func Verify(msg []byte, pk model.PublicKey, signature []byte) bool {
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pk[:], msg, signature)
}
