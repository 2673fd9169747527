// Package siwe builds and parses the canonical sign-in message the wallet
// signs and the backend verifies byte-for-byte.
package siwe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arbdesk/arbdesk/core"
)

const (
	// Version is the message template version constant.
	Version = "1"

	// SupportedChainID is the single supported network (Polygon mainnet).
	SupportedChainID int64 = 137

	// Statement is the fixed human-readable statement embedded in every
	// sign-in message.
	Statement = "Sign in to Arbdesk to manage your trading engines."
)

// Message is the deterministic signable structure. It is never persisted; it
// exists only to be rendered, signed and submitted.
type Message struct {
	Domain  string
	Address string
	URI     string
	ChainID int64
	Nonce   string
}

// Build validates the inputs and returns a Message. It is pure: the same
// four inputs always produce the same message.
func Build(domain, uri, address string, chainID int64, nonce string) (Message, error) {
	if !common.IsHexAddress(address) {
		return Message{}, core.ErrInvalidAddress
	}
	if chainID != SupportedChainID {
		return Message{}, fmt.Errorf("%w: %d", core.ErrInvalidChainID, chainID)
	}
	if nonce == "" {
		return Message{}, core.ErrInvalidNonce
	}
	return Message{
		Domain:  domain,
		Address: common.HexToAddress(address).Hex(),
		URI:     uri,
		ChainID: chainID,
		Nonce:   nonce,
	}, nil
}

// String renders the canonical template. The backend reconstructs this exact
// string to verify the signature, so the ordering and spacing are fixed.
func (m Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your Ethereum account:\n", m.Domain)
	fmt.Fprintf(&b, "%s\n\n", m.Address)
	fmt.Fprintf(&b, "%s\n\n", Statement)
	fmt.Fprintf(&b, "URI: %s\n", m.URI)
	fmt.Fprintf(&b, "Version: %s\n", Version)
	fmt.Fprintf(&b, "Chain ID: %d\n", m.ChainID)
	fmt.Fprintf(&b, "Nonce: %s", m.Nonce)
	return b.String()
}

// Parse reconstructs a Message from its canonical rendering. It rejects
// anything that does not round-trip through String.
func Parse(raw string) (Message, error) {
	lines := strings.Split(raw, "\n")
	if len(lines) != 9 {
		return Message{}, fmt.Errorf("malformed message: expected 9 lines, got %d", len(lines))
	}

	const suffix = " wants you to sign in with your Ethereum account:"
	if !strings.HasSuffix(lines[0], suffix) {
		return Message{}, fmt.Errorf("malformed message: bad preamble")
	}
	domain := strings.TrimSuffix(lines[0], suffix)

	address := lines[1]
	if !common.IsHexAddress(address) {
		return Message{}, core.ErrInvalidAddress
	}
	if lines[2] != "" || lines[4] != "" {
		return Message{}, fmt.Errorf("malformed message: missing separators")
	}
	if lines[3] != Statement {
		return Message{}, fmt.Errorf("malformed message: unexpected statement")
	}

	uri, ok := strings.CutPrefix(lines[5], "URI: ")
	if !ok {
		return Message{}, fmt.Errorf("malformed message: missing URI")
	}
	version, ok := strings.CutPrefix(lines[6], "Version: ")
	if !ok || version != Version {
		return Message{}, fmt.Errorf("malformed message: unsupported version %q", version)
	}
	chainStr, ok := strings.CutPrefix(lines[7], "Chain ID: ")
	if !ok {
		return Message{}, fmt.Errorf("malformed message: missing chain id")
	}
	chainID, err := strconv.ParseInt(chainStr, 10, 64)
	if err != nil {
		return Message{}, fmt.Errorf("malformed message: bad chain id: %w", err)
	}
	nonce, ok := strings.CutPrefix(lines[8], "Nonce: ")
	if !ok || nonce == "" {
		return Message{}, core.ErrInvalidNonce
	}

	return Message{
		Domain:  domain,
		Address: common.HexToAddress(address).Hex(),
		URI:     uri,
		ChainID: chainID,
		Nonce:   nonce,
	}, nil
}
