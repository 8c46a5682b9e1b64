package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocumentKey(t *testing.T) {
	at := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name, prefix, suggested, wantPrefix, wantSuffix string
	}{
		{"plain", "", "lease.pdf", "contracts/2024/03/", "-lease.pdf"},
		{"prefixed", "/estate/", "lease.pdf", "estate/contracts/2024/03/", "-lease.pdf"},
		{"unsafe characters", "", "kira sözleşmesi (final).pdf", "contracts/2024/03/", "-kira-s-zle-mesi-final-.pdf"},
		{"directory traversal", "", "../../etc/passwd", "contracts/2024/03/", "-passwd"},
		{"empty", "", "   ", "contracts/2024/03/", "-document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := documentKey(tt.prefix, tt.suggested, at)
			assert.True(t, strings.HasPrefix(key, tt.wantPrefix), key)
			assert.True(t, strings.HasSuffix(key, tt.wantSuffix), key)
			assert.NotContains(t, key, "..")
		})
	}

	assert.NotEqual(t, documentKey("", "a.pdf", at), documentKey("", "a.pdf", at))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t,
		"https://cdn.example.com/docs/contracts/2024/03/a%20b.pdf",
		joinURL("https://cdn.example.com/docs/", "contracts/2024/03/a b.pdf"))
}
