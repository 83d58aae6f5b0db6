package auction

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSessionID mints the opaque token identifying one bidding round for
// one ad.  The token is 16 bytes of cryptographically secure random data
// encoded as a 32 character hex string.  A fresh token is minted every
// time an auction round starts; closed sessions keep their token only in
// bid history.
func NewSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
