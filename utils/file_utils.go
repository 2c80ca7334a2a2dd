package utils

import (
	"crypto/ed25519"
	"errors"
	"os"

	log "github.com/sirupsen/logrus"
)

// ParseKeyFile loads the private key stored at fPath, or generates and saves a new one when createNewKey is set.
func ParseKeyFile(fPath string, createNewKey bool) (ed25519.PrivateKey, error) {
	if fPath == "" {
		return nil, errors.New("file path is missing")
	}
	// Generate new key and save to given path
	if createNewKey {
		log.Debug("generating a new key")
		userKey, _, err := GenerateKeyPair()
		if err != nil {
			return nil, err
		}
		if err := SavePrivateKeyToFile(userKey, fPath); err != nil {
			return nil, err
		}
		return userKey, nil
	}
	// Read key from exsiting pem file
	userKey, err := ReadKeyFromFPath(fPath)
	if err != nil {
		log.WithError(err).Warnf("failed to read key from path %s", fPath)
		return nil, err
	}
	return userKey, nil
}

func SavePrivateKeyToFile(privkey ed25519.PrivateKey, fpath string) error {
	data, err := PrivateKeyToBytes(privkey)
	if err != nil {
		return err
	}
	if err := os.WriteFile(fpath, data, 0600); err != nil {
		log.WithError(err).Warnf("failed to save key in %s", fpath)
		return err
	}
	log.Debugf("saved private key in file %s", fpath)
	return nil
}

func ReadKeyFromFPath(fPath string) (ed25519.PrivateKey, error) {
	fileContent, err := os.ReadFile(fPath)
	if err != nil {
		return nil, err
	}
	if len(fileContent) == 0 {
		return nil, errors.New("key file is empty")
	}
	return BytesToPrivateKey(fileContent)
}
