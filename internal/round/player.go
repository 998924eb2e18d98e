package round

import (
	"context"

	"yousef/internal/protocol"
)

// Player is a seat at the table. The host plays through in-process callbacks,
// remote players through their connection.
type Player interface {
	Name() string

	// Send delivers a fire-and-forget message.
	Send(ctx context.Context, t protocol.MessageType, payload any) error

	// RequestCardSelection announces the player's turn and suspends until they
	// submit hand indices to discard. An empty selection is a call.
	RequestCardSelection(ctx context.Context, turn protocol.TurnUpdate) ([]int, error)

	// RequestDrawChoice shows the prompt and suspends until the player picks a source.
	RequestDrawChoice(ctx context.Context, prompt protocol.ChatMessage) (protocol.DrawSource, error)

	DrawFinished(ctx context.Context) error
}
