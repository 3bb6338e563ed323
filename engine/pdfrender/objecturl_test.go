package pdfrender

import (
	"strings"
	"testing"
	"time"
)

func TestObjectURLsLifecycle(t *testing.T) {
	urls := NewObjectURLs(0)

	url := urls.Create([]byte("png bytes"), PNGType)
	if !strings.HasPrefix(url, ObjectURLPrefix) {
		t.Fatalf("URL %q does not start with %q", url, ObjectURLPrefix)
	}

	blob, ok := urls.Resolve(url)
	if !ok {
		t.Fatal("Created URL does not resolve")
	}
	if string(blob.Data) != "png bytes" || blob.Type != PNGType {
		t.Errorf("Resolved blob = %+v", blob)
	}

	// bare ids and absolute URLs resolve too
	id := strings.TrimPrefix(url, ObjectURLPrefix)
	if _, ok := urls.Resolve(id); !ok {
		t.Error("Bare id does not resolve")
	}
	if _, ok := urls.Resolve("http://localhost:8000" + url); !ok {
		t.Error("Absolute URL does not resolve")
	}

	urls.Revoke(url)
	if _, ok := urls.Resolve(url); ok {
		t.Error("Revoked URL still resolves")
	}
	urls.Revoke(url)
}

func TestObjectURLsUnique(t *testing.T) {
	urls := NewObjectURLs(0)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		u := urls.Create(nil, PNGType)
		if seen[u] {
			t.Fatalf("Duplicate URL %s", u)
		}
		seen[u] = true
	}
	if urls.Len() != 100 {
		t.Errorf("Len() = %d, want 100", urls.Len())
	}
}

func TestObjectURLsSweep(t *testing.T) {
	urls := NewObjectURLs(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	urls.now = func() time.Time { return now }

	old := urls.Create([]byte("old"), PNGType)
	now = now.Add(2 * time.Minute)
	fresh := urls.Create([]byte("fresh"), PNGType)

	if _, ok := urls.Resolve(old); ok {
		t.Error("Expired URL should not resolve")
	}
	if removed := urls.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if _, ok := urls.Resolve(fresh); !ok {
		t.Error("Fresh URL was swept")
	}
	if urls.Len() != 1 {
		t.Errorf("Len() = %d, want 1", urls.Len())
	}
}

func TestObjectURLsSweepWithoutTTL(t *testing.T) {
	urls := NewObjectURLs(0)
	urls.Create([]byte("a"), PNGType)
	if removed := urls.Sweep(); removed != 0 {
		t.Errorf("Sweep removed %d with no TTL", removed)
	}
}
