package services

import (
	"encoding/base64"
	"encoding/binary"
	"hash/fnv"
)

// Preview links embed the project public ID in an opaque token so raw IDs
// never appear in client-facing URLs. The token carries a checksum: a token
// that fails to decode or verify is an invalid link, which is a different
// failure than a valid link whose project no longer exists.

const linkChecksumLen = 4

// EncodePreviewToken turns a project public ID into an opaque link token.
func EncodePreviewToken(publicID string) string {
	sum := linkChecksum(publicID)
	payload := make([]byte, 0, len(publicID)+linkChecksumLen)
	payload = append(payload, []byte(publicID)...)
	payload = append(payload, sum...)
	return base64.RawURLEncoding.EncodeToString(payload)
}

// DecodePreviewToken recovers the project public ID from a link token.
// Returns ErrInvalidLink when the token is malformed or tampered with.
func DecodePreviewToken(token string) (string, error) {
	payload, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrInvalidLink
	}
	if len(payload) <= linkChecksumLen {
		return "", ErrInvalidLink
	}

	publicID := string(payload[:len(payload)-linkChecksumLen])
	sum := payload[len(payload)-linkChecksumLen:]

	expected := linkChecksum(publicID)
	for i := range expected {
		if sum[i] != expected[i] {
			return "", ErrInvalidLink
		}
	}

	return publicID, nil
}

func linkChecksum(publicID string) []byte {
	h := fnv.New32a()
	h.Write([]byte("sonora-preview:"))
	h.Write([]byte(publicID))
	buf := make([]byte, linkChecksumLen)
	binary.BigEndian.PutUint32(buf, h.Sum32())
	return buf
}
