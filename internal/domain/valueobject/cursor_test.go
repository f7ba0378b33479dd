package valueobject_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/pggateway/internal/domain/valueobject"
)

func TestEncodeCursor_WireFormat(t *testing.T) {
	c := valueobject.Cursor{CreatedAt: time.UnixMilli(1700000000123).UTC(), ID: 42}

	token := valueobject.EncodeCursor(c)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Equal(t, "1700000000123:42", string(raw))
	assert.NotContains(t, token, "=")
}

func TestCursor_RoundTrip(t *testing.T) {
	tests := []valueobject.Cursor{
		{CreatedAt: time.UnixMilli(0).UTC(), ID: 1},
		{CreatedAt: time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC), ID: 9_007_199_254_740_993},
		{CreatedAt: time.Date(1999, 12, 31, 23, 59, 59, 999_000_000, time.UTC), ID: 7},
	}
	for _, c := range tests {
		decoded, ok := valueobject.DecodeCursor(valueobject.EncodeCursor(c))
		require.True(t, ok)
		assert.True(t, c.CreatedAt.Equal(decoded.CreatedAt))
		assert.Equal(t, c.ID, decoded.ID)
	}
}

func TestDecodeCursor_AcceptsPadding(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte("1700000000000:5"))

	c, ok := valueobject.DecodeCursor(padded)
	require.True(t, ok)
	assert.Equal(t, int64(5), c.ID)
	assert.Equal(t, int64(1700000000000), c.CreatedAt.UnixMilli())
}

func TestDecodeCursor_Malformed(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := map[string]string{
		"empty":          "",
		"blank":          "   ",
		"not base64":     "!!!***",
		"no delimiter":   enc("1700000000000"),
		"too many parts": enc("1:2:3"),
		"non numeric ts": enc("abc:1"),
		"non numeric id": enc("1700000000000:x"),
		"empty id":       enc("1700000000000:"),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, ok := valueobject.DecodeCursor(token)
			assert.False(t, ok)
		})
	}
}
