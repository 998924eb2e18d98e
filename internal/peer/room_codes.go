package peer

import (
	"errors"
	"math/rand"
	"strings"
)

const RoomCodeLength = 4

// GenerateRoomCode returns a code of uppercase letters not present in used.
// A nil rng draws from the global source.
func GenerateRoomCode(rng *rand.Rand, used map[string]bool) string {
	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}
	for {
		code := make([]byte, RoomCodeLength)
		for i := range code {
			code[i] = 'A' + byte(intn(26))
		}
		if !used[string(code)] {
			return string(code)
		}
	}
}

func ValidateRoomCode(code string) error {
	if len(code) != RoomCodeLength {
		return errors.New("INVALID_ROOM_CODE: room code must be exactly 4 characters")
	}
	for _, ch := range strings.ToUpper(code) {
		if ch < 'A' || ch > 'Z' {
			return errors.New("INVALID_ROOM_CODE: room code must contain only letters A-Z")
		}
	}
	return nil
}

func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
