package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func newTokenizer(t *testing.T, ttl time.Duration) *Tokenizer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return New(key, ttl)
}

func TestIssueAndParse(t *testing.T) {
	tok := newTokenizer(t, time.Hour)

	signed, err := tok.Issue(testAddress, "trader")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	session, err := tok.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, testAddress, session.Address)
	assert.Equal(t, "trader", session.Role)
	assert.NotEmpty(t, session.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)
}

func TestUniqueTokenIDs(t *testing.T) {
	tok := newTokenizer(t, time.Hour)

	first, err := tok.Issue(testAddress, "trader")
	require.NoError(t, err)
	second, err := tok.Issue(testAddress, "trader")
	require.NoError(t, err)

	a, err := tok.Parse(first)
	require.NoError(t, err)
	b, err := tok.Parse(second)
	require.NoError(t, err)
	assert.NotEqual(t, a.TokenID, b.TokenID)
}

func TestParseRejectsForeignKey(t *testing.T) {
	issuer := newTokenizer(t, time.Hour)
	verifier := newTokenizer(t, time.Hour)

	signed, err := issuer.Issue(testAddress, "trader")
	require.NoError(t, err)

	_, err = verifier.Parse(signed)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	tok := newTokenizer(t, time.Millisecond)

	signed, err := tok.Issue(testAddress, "trader")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = tok.Parse(signed)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	tok := newTokenizer(t, time.Hour)
	_, err := tok.Parse("not-a-token")
	assert.Error(t, err)
}

func TestParseRequiresExpiry(t *testing.T) {
	tok := newTokenizer(t, time.Hour)

	// Signed with the server's own key but carrying no exp claim.
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  testAddress,
			ID:       "jti-no-exp",
			Audience: jwt.ClaimStrings{AudienceSession},
		},
		Role: "trader",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(tok.signKey)
	require.NoError(t, err)

	_, err = tok.Parse(signed)
	assert.Error(t, err)
}

func TestZeroTTLTakesDefault(t *testing.T) {
	tok := newTokenizer(t, 0)

	signed, err := tok.Issue(testAddress, "trader")
	require.NoError(t, err)

	session, err := tok.Parse(signed)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultSessionTTL), session.ExpiresAt, time.Minute)
}
