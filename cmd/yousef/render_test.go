package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yousef/internal/protocol"
	"yousef/internal/store"
)

func TestRenderRoundShowsHandSum(t *testing.T) {
	tests := []struct {
		name  string
		hand  []int
		score int
		want  string
	}{
		{"ace and king", []int{0, 12}, 40, "your hand (sum 11, score 40): 0:ace of hearts 1:king of hearts"},
		{"fresh game", []int{4}, 0, "your hand (sum 5, score 0): 0:5 of hearts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New()
			env, err := protocol.NewEnvelope(protocol.TypeRoundUpdate, protocol.RoundUpdate{
				RoundNum:      1,
				TurnNum:       1,
				CurrentPlayer: "Ann",
				Hand:          tt.hand,
				Score:         tt.score,
				Pile:          []int{1},
			})
			require.NoError(t, err)
			require.NoError(t, st.Apply(env))

			var out bytes.Buffer
			newRenderer(st, &out).render(protocol.TypeRoundUpdate)
			assert.Contains(t, out.String(), tt.want)
		})
	}
}
