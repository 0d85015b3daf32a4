package services

import (
	"strings"
	"testing"
)

func TestPreviewTokenRoundTrip(t *testing.T) {
	ids := []string{
		"8a2c1f0e-9b7d-4c3a-a1e2-6f5d4b3c2a19",
		"short",
		"id-with-ünïcode",
	}

	for _, id := range ids {
		token := EncodePreviewToken(id)
		got, err := DecodePreviewToken(token)
		if err != nil {
			t.Errorf("DecodePreviewToken(%q) failed: %v", id, err)
			continue
		}
		if got != id {
			t.Errorf("round trip = %q, expected %q", got, id)
		}
	}
}

func TestPreviewTokenIsOpaque(t *testing.T) {
	id := "8a2c1f0e-9b7d-4c3a-a1e2-6f5d4b3c2a19"
	token := EncodePreviewToken(id)

	if strings.Contains(token, id) {
		t.Error("token must not expose the raw project ID")
	}
}

func TestDecodePreviewToken_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"too short", "YWJj"},
		{"tampered", EncodePreviewToken("some-project")[:10] + "XXXX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodePreviewToken(tt.token); err != ErrInvalidLink {
				t.Errorf("expected ErrInvalidLink, got %v", err)
			}
		})
	}
}

func TestDecodePreviewToken_ChecksumRejectsSwappedID(t *testing.T) {
	// A checksum from one ID glued to another must not verify
	good := EncodePreviewToken("project-a")
	bad := good[:len(good)-6] + "AAAAAA"

	if _, err := DecodePreviewToken(bad); err != ErrInvalidLink {
		t.Errorf("expected ErrInvalidLink for forged checksum, got %v", err)
	}
}
