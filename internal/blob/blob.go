// Package blob stores message attachments as opaque payloads under
// generated keys. The core only ever writes; attachments are read back by
// clients through static file serving.
package blob

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Store accepts a decoded payload under a generated key.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Key derives the storage key for an uploaded file: current epoch millis
// plus the last dot-delimited segment of the original name. A name without
// a dot yields "<millis>.<wholeName>" — kept verbatim, not corrected.
func Key(filename string, now time.Time) string {
	parts := strings.Split(filename, ".")
	ext := parts[len(parts)-1]
	return fmt.Sprintf("%d.%s", now.UnixMilli(), ext)
}

// DecodePayload decodes an attachment body. Clients send either a data URI
// ("data:image/png;base64,....") or a bare base64 string; everything after
// the first comma is the base64 payload.
func DecodePayload(data string) ([]byte, error) {
	if i := strings.IndexByte(data, ','); i >= 0 {
		data = data[i+1:]
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return decoded, nil
}
