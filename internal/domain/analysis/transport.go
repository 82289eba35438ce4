package analysis

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeContent encodes raw document bytes for a queue message.
func EncodeContent(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeContent reverses EncodeContent.
func DecodeContent(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransportDecode, err)
	}
	return raw, nil
}
