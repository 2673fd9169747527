package ports

// Wallet is the wallet-connection provider: it supplies an address, a chain
// id and a sign-message capability. Its internal implementation is not part
// of this system.
type Wallet interface {
	// Address returns the checksummed account address.
	Address() string

	// ChainID returns the numeric id of the connected network.
	ChainID() int64

	// SignMessage signs msg with an EIP-191 personal-sign and returns the
	// 65-byte signature hex-encoded with 0x prefix.
	SignMessage(msg []byte) (string, error)
}
