package cache

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"path/filepath"
	"sort"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "chunks.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)

	data := []byte("chunk-bytes")
	hash := sha256.Sum256(data)
	if err := s.Put(hash, data); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(hash)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(sha256.Sum256([]byte("absent")))
	if !errors.Is(err, ErrChunkNotFound) {
		t.Errorf("err = %v, want ErrChunkNotFound", err)
	}
}

func TestPutIdempotent(t *testing.T) {
	s := openTestStore(t)

	data := []byte("same-content")
	hash := sha256.Sum256(data)
	for i := 0; i < 3; i++ {
		if err := s.Put(hash, data); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	data := []byte("doomed")
	hash := sha256.Sum256(data)
	if err := s.Put(hash, data); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(hash); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(hash); !errors.Is(err, ErrChunkNotFound) {
		t.Error("deleted chunk still retrievable")
	}

	// Deleting a missing hash is not an error.
	if err := s.Delete(sha256.Sum256([]byte("never-stored"))); err != nil {
		t.Error(err)
	}
}

func TestHashesSorted(t *testing.T) {
	s := openTestStore(t)

	for _, payload := range []string{"alpha", "beta", "gamma"} {
		if err := s.Put(sha256.Sum256([]byte(payload)), []byte(payload)); err != nil {
			t.Fatal(err)
		}
	}

	hashes, err := s.Hashes()
	if err != nil {
		t.Fatal(err)
	}
	if len(hashes) != 3 {
		t.Fatalf("got %d hashes, want 3", len(hashes))
	}
	if !sort.StringsAreSorted(hashes) {
		t.Error("hashes not sorted")
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("persisted")
	hash := sha256.Sum256(data)
	if err := s.Put(hash, data); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.Get(hash)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("chunk lost across reopen")
	}
}
