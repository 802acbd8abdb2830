package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionEncoding(t *testing.T) {
	assert.Equal(t, "apply_ABCDEFGH12", ApplyAction("ABCDEFGH12").Encode())
	assert.Equal(t, "accept_ABCDEFGH12_42", AcceptAction("ABCDEFGH12", 42).Encode())
	assert.Equal(t, "reject_ABCDEFGH12_42", RejectAction("ABCDEFGH12", 42).Encode())
}

func TestParseAction(t *testing.T) {
	for _, action := range []Action{
		ApplyAction("ABCDEFGH12"),
		AcceptAction("ABCDEFGH12", 42),
		RejectAction("0123456789", 7000000001),
	} {
		parsed, err := ParseAction(action.Encode())
		require.NoError(t, err)
		assert.Equal(t, action, parsed)
	}
}

func TestParseActionRejectsMalformedData(t *testing.T) {
	for _, data := range []string{
		"",
		"full",
		"apply",
		"apply_abc",
		"apply_ABCDEFGH12_1",
		"accept_ABCDEFGH12",
		"accept_ABCDEFGH12_x",
		"reject_ABCDEFGH1_1",
		"delete_ABCDEFGH12_1",
	} {
		_, err := ParseAction(data)
		assert.ErrorIs(t, err, ErrValidation, "data: %q", data)
	}
}
