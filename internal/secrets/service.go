// Package secrets issues the bearer credentials of the vault: invite tokens,
// human-shareable codes and public share tokens.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"math/big"

	"golang.org/x/crypto/argon2"
)

const (
	tokenBytes   = 32
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// InviteCodeLength is the length of team and invite codes.
	InviteCodeLength = 6
)

var tokenSalt = []byte("vault-invite-token")

// NewToken returns a URL-safe token carrying 256 bits from crypto/rand.
func NewToken() (string, error) {
	var raw [tokenBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// NewCode returns an upper-case alphanumeric code of length n.
func NewCode(n int) (string, error) {
	base := big.NewInt(int64(len(codeAlphabet)))
	out := make([]byte, n)
	for i := range out {
		v, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		out[i] = codeAlphabet[v.Int64()]
	}
	return string(out), nil
}

// Argon2id cost for HashToken. Tokens carry 256 random bits; the hash runs
// on the anonymous invite preview path and stays at the minimum cost.
const (
	hashTime      = 1
	hashMemoryKiB = 64
	hashThreads   = 1
	hashKeyLen    = 32
)

// HashToken derives the at-rest form of an invite token. The derivation is
// deterministic so the hash can be used as a lookup key.
func HashToken(token string) string {
	h := argon2.IDKey([]byte(token), tokenSalt, hashTime, hashMemoryKiB, hashThreads, hashKeyLen)
	return hex.EncodeToString(h)
}

// Issuer is the source of fresh credentials used by the services.
type Issuer interface {
	Token() (string, error)
	Code() (string, error)
}

type randomIssuer struct{}

// NewIssuer returns the crypto/rand backed Issuer.
func NewIssuer() Issuer { return randomIssuer{} }

func (randomIssuer) Token() (string, error) { return NewToken() }
func (randomIssuer) Code() (string, error)  { return NewCode(InviteCodeLength) }
