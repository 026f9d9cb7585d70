package vm

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"sync"
)

// ---------------------------------------------------------------------------
// FunctionStore: content-addressed index for compiled functions
// ---------------------------------------------------------------------------

// ContentHash returns a digest over the function's identity and compiled
// code. Functions with identical names, paths, code, and pools hash
// identically; bound tables and segments do not participate.
func (f *Function) ContentHash() [32]byte {
	h := sha256.New()
	h.Write([]byte(f.Name))
	h.Write([]byte{0})
	h.Write([]byte(f.ScriptPath))
	h.Write([]byte{0})

	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], uint32(len(f.Code)))
	h.Write(word[:])
	for _, w := range f.Code {
		binary.LittleEndian.PutUint32(word[:], uint32(w))
		h.Write(word[:])
	}

	binary.LittleEndian.PutUint32(word[:], uint32(len(f.Constants)))
	h.Write(word[:])
	for _, c := range f.Constants {
		h.Write([]byte{byte(c.Type())})
		h.Write([]byte(c.String()))
		h.Write([]byte{0})
	}

	binary.LittleEndian.PutUint32(word[:], uint32(len(f.GlobalNames)))
	h.Write(word[:])
	for _, n := range f.GlobalNames {
		h.Write([]byte(n))
		h.Write([]byte{0})
	}

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// FunctionStore indexes compiled functions by their content hash. It backs
// the on-disk chunk cache and the CLI's inspection commands.
type FunctionStore struct {
	mu    sync.RWMutex
	funcs map[[32]byte]*Function
}

// NewFunctionStore creates an empty store.
func NewFunctionStore() *FunctionStore {
	return &FunctionStore{funcs: make(map[[32]byte]*Function)}
}

// Index adds a function to the store, keyed by its content hash.
func (fs *FunctionStore) Index(f *Function) [32]byte {
	h := f.ContentHash()
	fs.mu.Lock()
	fs.funcs[h] = f
	fs.mu.Unlock()
	return h
}

// Lookup returns the function for the given hash, or nil.
func (fs *FunctionStore) Lookup(h [32]byte) *Function {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.funcs[h]
}

// Count returns the number of indexed functions.
func (fs *FunctionStore) Count() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.funcs)
}

// Hashes returns all indexed hashes in lexicographic order.
func (fs *FunctionStore) Hashes() [][32]byte {
	fs.mu.RLock()
	hashes := make([][32]byte, 0, len(fs.funcs))
	for h := range fs.funcs {
		hashes = append(hashes, h)
	}
	fs.mu.RUnlock()

	sort.Slice(hashes, func(i, j int) bool {
		a, b := hashes[i], hashes[j]
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return hashes
}
