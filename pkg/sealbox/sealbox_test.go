package sealbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

func TestSealOpenRoundTrip(t *testing.T) {
	box, err := New("correct horse battery staple")
	require.NoError(t, err)

	in := record{ID: "DOC-7", Score: 85}
	envelope, err := box.Seal(in)
	require.NoError(t, err)

	var out record
	require.NoError(t, box.OpenJSON(envelope, &out))
	assert.Equal(t, in, out)
}

func TestSealIsSaltedPerCall(t *testing.T) {
	box, err := New("pw")
	require.NoError(t, err)

	a, err := box.Seal(record{ID: "X"})
	require.NoError(t, err)
	b, err := box.Seal(record{ID: "X"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	var out record
	require.NoError(t, box.OpenJSON(a, &out))
	require.NoError(t, box.OpenJSON(b, &out))
}

func TestOpenWrongPassphraseFails(t *testing.T) {
	box, err := New("right")
	require.NoError(t, err)
	envelope, err := box.Seal(record{ID: "DOC-7"})
	require.NoError(t, err)

	other, err := New("wrong")
	require.NoError(t, err)
	_, err = other.Open(envelope)
	assert.Error(t, err)
}

func TestOpenTamperedEnvelopeFails(t *testing.T) {
	box, err := New("pw")
	require.NoError(t, err)
	envelope, err := box.Seal(record{ID: "DOC-7"})
	require.NoError(t, err)

	tampered := []byte(envelope)
	tampered[len(tampered)-1] ^= 0x01
	_, err = box.Open(string(tampered))
	assert.Error(t, err)
}

func TestOpenMalformedEnvelope(t *testing.T) {
	box, err := New("pw")
	require.NoError(t, err)

	for _, bad := range []string{"", "not base64!!", "c2hvcnQ"} {
		_, err := box.Open(bad)
		assert.Error(t, err, "envelope %q", bad)
	}
}

func TestNewRejectsEmptyPassphrase(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
