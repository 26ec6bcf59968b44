package service

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/robalyx/tribunal/internal/database/types"
)

const (
	idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idLength   = 6

	// maxIDAttempts bounds the number of collisions tolerated per submission.
	maxIDAttempts = 5
)

// GenerateAppealID returns a random identifier of the form APL-XXXXXX.
func GenerateAppealID() (string, error) {
	alphabetSize := big.NewInt(int64(len(idAlphabet)))

	buf := make([]byte, idLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		buf[i] = idAlphabet[n.Int64()]
	}

	return types.AppealIDPrefix + string(buf), nil
}
