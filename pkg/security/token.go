package security

import (
	"crypto/rand"
	"encoding/hex"
)

// ShareTokenBytes gives 128 bits of entropy, enough that guessing a live
// share token is infeasible.
const ShareTokenBytes = 16

// GenerateToken returns n random bytes hex-encoded. Used for share link
// tokens, which are bearer credentials.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)

	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
