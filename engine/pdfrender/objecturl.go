package pdfrender

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ObjectURLPrefix is the path every object URL lives under
const ObjectURLPrefix = "/blob/"

// Blob is the content behind an object URL
type Blob struct {
	Type    string
	Data    []byte
	Created time.Time
}

// ObjectURLs hands out locally resolvable URLs for in-memory bytes, like a browser's URL.createObjectURL
type ObjectURLs struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	blobs map[string]Blob
}

// NewObjectURLs creates a registry. Entries older than ttl are dropped by Sweep; ttl <= 0 keeps them until revoked.
func NewObjectURLs(ttl time.Duration) *ObjectURLs {
	return &ObjectURLs{
		ttl:   ttl,
		now:   time.Now,
		blobs: make(map[string]Blob),
	}
}

// Create registers data and returns its URL
func (o *ObjectURLs) Create(data []byte, mimeType string) string {
	id := uuid.NewString()
	o.mu.Lock()
	o.blobs[id] = Blob{Type: mimeType, Data: data, Created: o.now()}
	o.mu.Unlock()
	return ObjectURLPrefix + id
}

// Resolve looks up a URL or bare id
func (o *ObjectURLs) Resolve(url string) (Blob, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	blob, ok := o.blobs[objectID(url)]
	if ok && o.expired(blob) {
		return Blob{}, false
	}
	return blob, ok
}

// Revoke forgets a URL. Revoking an unknown URL is a no-op.
func (o *ObjectURLs) Revoke(url string) {
	o.mu.Lock()
	delete(o.blobs, objectID(url))
	o.mu.Unlock()
}

// Len returns the number of live entries
func (o *ObjectURLs) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.blobs)
}

// Sweep drops expired entries and returns how many were removed
func (o *ObjectURLs) Sweep() int {
	if o.ttl <= 0 {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	removed := 0
	for id, blob := range o.blobs {
		if o.expired(blob) {
			delete(o.blobs, id)
			removed++
		}
	}
	return removed
}

func (o *ObjectURLs) expired(blob Blob) bool {
	return o.ttl > 0 && o.now().Sub(blob.Created) > o.ttl
}

func objectID(url string) string {
	if i := strings.LastIndex(url, ObjectURLPrefix); i >= 0 {
		return url[i+len(ObjectURLPrefix):]
	}
	return url
}
