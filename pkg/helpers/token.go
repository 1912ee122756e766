package helpers

import (
	"crypto/rand"
	"encoding/hex"
)

// opaqueTokenBytes gives 256 bits of entropy per verification/reset token.
const opaqueTokenBytes = 32

// NewOpaqueToken returns a random hex token with no parseable structure,
// used for email verification and password reset credentials.
func NewOpaqueToken() (string, error) {
	b := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
