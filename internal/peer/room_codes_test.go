package peer_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"yousef/internal/peer"
)

func TestGenerateRoomCodeFormat(t *testing.T) {
	assert := assert.New(t)

	for range 100 {
		code := peer.GenerateRoomCode(nil, nil)

		assert.Equal(peer.RoomCodeLength, len(code))
		for _, ch := range code {
			assert.True(ch >= 'A' && ch <= 'Z')
		}
		assert.NoError(peer.ValidateRoomCode(code))
	}
}

func TestGenerateRoomCodeAvoidsUsedCodes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	first := peer.GenerateRoomCode(rand.New(rand.NewSource(1)), nil)

	code := peer.GenerateRoomCode(rng, map[string]bool{first: true})
	assert.NotEqual(t, first, code)
}

func TestGenerateRoomCodeDeterministic(t *testing.T) {
	a := peer.GenerateRoomCode(rand.New(rand.NewSource(42)), nil)
	b := peer.GenerateRoomCode(rand.New(rand.NewSource(42)), nil)
	assert.Equal(t, a, b)
}

func TestValidateRoomCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"BEAR", true},
		{"game", true},
		{"ZZZZ", true},
		{"", false},
		{"ABC", false},
		{"ABCDE", false},
		{"AB1D", false},
		{"AB D", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := peer.ValidateRoomCode(tt.code)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNormalizeRoomCode(t *testing.T) {
	assert.Equal(t, "BEAR", peer.NormalizeRoomCode(" bear "))
	assert.Equal(t, "GAME", peer.NormalizeRoomCode("GaMe"))
}
