package core

import "errors"

var (
	// ErrNonceUnavailable is returned when the nonce request fails and
	// sign-in cannot proceed.
	ErrNonceUnavailable = errors.New("nonce unavailable")

	// ErrSignatureRejected is returned when the user declined to sign or
	// the backend rejected the signature.
	ErrSignatureRejected = errors.New("signature rejected")

	// ErrVerifyTransport is returned on a network-level failure during
	// verify. Same user-visible outcome as ErrSignatureRejected,
	// distinguished only for logging.
	ErrVerifyTransport = errors.New("verify transport failure")

	// ErrSessionInvalid is returned when an authenticated call is denied
	// authorization. The session has already been invalidated by the time
	// a caller sees it.
	ErrSessionInvalid = errors.New("session is invalid")

	// ErrRealtimeUnavailable is reported when the status channel cannot
	// connect even though a token is present. Non-fatal.
	ErrRealtimeUnavailable = errors.New("realtime channel unavailable")

	// ErrInvalidAddress is returned when a wallet address is malformed.
	ErrInvalidAddress = errors.New("invalid ethereum address")

	// ErrInvalidChainID is returned when a chain id does not match the
	// supported network.
	ErrInvalidChainID = errors.New("unsupported chain id")

	// ErrInvalidNonce is returned when a challenge nonce is empty, reused
	// or unknown.
	ErrInvalidNonce = errors.New("invalid nonce")
)
