package cache

import "context"

// NoopStore is used when no cache path is configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Get(context.Context, string, string) (Snapshot, bool, error) {
	return Snapshot{}, false, nil
}
func (n *NoopStore) Put(context.Context, string, string, []byte) error { return nil }
func (n *NoopStore) Close() error                                       { return nil }
