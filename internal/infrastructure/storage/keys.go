// Package storage keeps lease documents in object storage. Contracts hold only
// the returned object key; the bytes live here.
package storage

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultDocumentName = "document"

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// documentKey builds a collision-free object key: <prefix>contracts/<yyyy>/<mm>/<uuid>-<name>
func documentKey(prefix, suggestedName string, now time.Time) string {
	name := unsafeKeyChars.ReplaceAllString(path.Base(strings.TrimSpace(suggestedName)), "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		name = defaultDocumentName
	}
	key := path.Join("contracts", now.UTC().Format("2006/01"), uuid.NewString()+"-"+name)
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}

// joinURL appends an object key to a base URL, escaping each segment
func joinURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
