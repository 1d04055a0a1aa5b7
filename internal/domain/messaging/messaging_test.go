package messaging_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"skoropad/internal/domain/messaging"
)

func TestSendParamsValidate(t *testing.T) {
	valid := messaging.SendParams{SenderID: "a", ReceiverID: "b", Content: "hi"}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		params messaging.SendParams
		want   error
	}{
		{"missing sender", messaging.SendParams{ReceiverID: "b", Content: "hi"}, messaging.ErrSenderRequired},
		{"missing receiver", messaging.SendParams{SenderID: "a", Content: "hi"}, messaging.ErrReceiverRequired},
		{"self conversation", messaging.SendParams{SenderID: "a", ReceiverID: "a", Content: "hi"}, messaging.ErrSelfConversation},
		{"empty content", messaging.SendParams{SenderID: "a", ReceiverID: "b", Content: "   \n\t"}, messaging.ErrContentRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.params.Validate(), tc.want)
		})
	}

	// Trimming applies to the emptiness check only; padded content is valid.
	padded := messaging.SendParams{SenderID: "a", ReceiverID: "b", Content: "  hi  "}
	require.NoError(t, padded.Validate())
}

func TestConversationParticipants(t *testing.T) {
	conv := messaging.Conversation{
		ID:          "c1",
		User1ID:     "a",
		User2ID:     "b",
		User1Unread: 3,
		User2Unread: 1,
	}

	require.True(t, conv.Involves("a"))
	require.True(t, conv.Involves("b"))
	require.False(t, conv.Involves("z"))

	other, ok := conv.OtherParticipant("a")
	require.True(t, ok)
	require.Equal(t, "b", string(other))
	other, ok = conv.OtherParticipant("b")
	require.True(t, ok)
	require.Equal(t, "a", string(other))
	_, ok = conv.OtherParticipant("z")
	require.False(t, ok)

	require.Equal(t, 3, conv.UnreadFor("a"))
	require.Equal(t, 1, conv.UnreadFor("b"))
	require.Zero(t, conv.UnreadFor("z"))
}

func TestPairKeyIsOrderIndependent(t *testing.T) {
	require.Equal(t, "alice|bob", messaging.PairKey("alice", "bob"))
	require.Equal(t, "alice|bob", messaging.PairKey("bob", "alice"))
	require.NotEqual(t, messaging.PairKey("alice", "bob"), messaging.PairKey("alice", "carol"))
}
