package testutil

import (
	"sync/atomic"

	"github.com/alexanderramin/fokus/internal/store"
)

// FailingStore wraps a BlobStore and injects errors on demand, for
// exercising degraded-durability paths.
type FailingStore struct {
	Inner    store.BlobStore
	ReadErr  error
	writeErr atomic.Value // error
}

// NewFailingStore wraps inner with no failures armed.
func NewFailingStore(inner store.BlobStore) *FailingStore {
	return &FailingStore{Inner: inner}
}

// FailWrites arms (or, with nil, disarms) the write failure.
func (f *FailingStore) FailWrites(err error) {
	if err == nil {
		f.writeErr.Store(errHolder{})
		return
	}
	f.writeErr.Store(errHolder{err: err})
}

func (f *FailingStore) Read() ([]byte, error) {
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	return f.Inner.Read()
}

func (f *FailingStore) Write(blob []byte) error {
	if h, ok := f.writeErr.Load().(errHolder); ok && h.err != nil {
		return h.err
	}
	return f.Inner.Write(blob)
}

type errHolder struct{ err error }
