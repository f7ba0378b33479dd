package valueobject

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

const cursorDelimiter = ":"

// Cursor marks the last row of a page in (createdAt DESC, id DESC) order.
type Cursor struct {
	CreatedAt time.Time
	ID        int64
}

// EncodeCursor renders c as unpadded URL-safe base64 of "<epochMillis>:<id>".
func EncodeCursor(c Cursor) string {
	raw := strconv.FormatInt(c.CreatedAt.UnixMilli(), 10) + cursorDelimiter + strconv.FormatInt(c.ID, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor. Blank or malformed
// tokens report false so callers fall back to the first page.
func DecodeCursor(token string) (Cursor, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{}, false
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return Cursor{}, false
	}

	parts := strings.Split(string(raw), cursorDelimiter)
	if len(parts) != 2 {
		return Cursor{}, false
	}

	millis, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Cursor{}, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Cursor{}, false
	}

	return Cursor{CreatedAt: time.UnixMilli(millis).UTC(), ID: id}, true
}
