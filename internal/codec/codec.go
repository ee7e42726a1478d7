// Package codec encodes binary fields for ripenv's JSON documents.
//
// All byte fields are URL-safe base64 written without padding. Decoding
// accepts both padded and unpadded input, since other producers of the same
// documents (the web app export in particular) may keep the padding.
package codec

import (
	"encoding/base64"
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
)

// Encode returns data as unpadded URL-safe base64.
func Encode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode parses URL-safe base64 with or without trailing padding.
func Decode(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidEncoding, err)
	}
	return data, nil
}

// DecodeFixed decodes s and checks that it holds exactly size bytes.
func DecodeFixed(s string, size int) ([]byte, error) {
	data, err := Decode(s)
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", kerrors.ErrInvalidKeyLength, size, len(data))
	}
	return data, nil
}
