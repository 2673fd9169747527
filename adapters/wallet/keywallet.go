package wallet

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/arbdesk/arbdesk/ports"
)

// KeyWallet is a wallet provider backed by a local secp256k1 key. It stands
// in for a browser wallet extension: it supplies an address, a chain id and
// an EIP-191 personal-sign capability.
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	chainID int64
}

// NewKeyWallet wraps an existing private key.
func NewKeyWallet(key *ecdsa.PrivateKey, chainID int64) *KeyWallet {
	return &KeyWallet{key: key, chainID: chainID}
}

// FromHex loads a wallet from a hex-encoded private key, with or without
// 0x prefix.
func FromHex(hexKey string, chainID int64) (*KeyWallet, error) {
	if len(hexKey) >= 2 && hexKey[:2] == "0x" {
		hexKey = hexKey[2:]
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet key: %w", err)
	}
	return &KeyWallet{key: key, chainID: chainID}, nil
}

// Generate creates a wallet with a fresh random key.
func Generate(chainID int64) (*KeyWallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate wallet key: %w", err)
	}
	return &KeyWallet{key: key, chainID: chainID}, nil
}

// Address returns the checksummed account address.
func (w *KeyWallet) Address() string {
	return crypto.PubkeyToAddress(w.key.PublicKey).Hex()
}

// ChainID returns the configured network id.
func (w *KeyWallet) ChainID() int64 {
	return w.chainID
}

// SignMessage produces an EIP-191 personal-sign signature over msg, hex
// encoded with the recovery id in the 27/28 form wallets emit.
func (w *KeyWallet) SignMessage(msg []byte) (string, error) {
	hash := accounts.TextHash(msg)
	sig, err := crypto.Sign(hash, w.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

var _ ports.Wallet = (*KeyWallet)(nil)
