package provision

import (
	"crypto/rand"
	"math/big"
)

// Base-36 alphabet matching the short codes the web client already accepts.
const roomIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const roomIDLength = 6

// ShortRoomID generates a random room id of the given length. Collisions are
// possible but improbable enough for call-sized usage; the directory treats
// createRoom as an overwrite either way.
func ShortRoomID(length int) (string, error) {
	if length <= 0 {
		length = roomIDLength
	}

	code := make([]byte, length)
	max := big.NewInt(int64(len(roomIDAlphabet)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = roomIDAlphabet[n.Int64()]
	}

	return string(code), nil
}
