package core

import "context"

// MemoryRepository owns the persisted memory collection. Absent storage reads
// as an empty collection; corrupt storage surfaces as an error, never as an
// empty result. All mutations run as a single atomic replace of the target
// collection so concurrent writers serialize and readers observe either the
// pre- or post-write state.
type MemoryRepository interface {
	// LoadMemories returns every entry in storage order.
	LoadMemories(ctx context.Context) ([]MemoryEntry, error)
	// SaveMemories atomically replaces the whole collection.
	SaveMemories(ctx context.Context, entries []MemoryEntry) error
	// AppendMemories appends a batch in one store write, assigning IDs to
	// entries that lack one, and returns the stored entries.
	AppendMemories(ctx context.Context, entries []MemoryEntry) ([]MemoryEntry, error)
	// Forget removes every entry whose text contains query as a
	// case-insensitive substring and returns the count removed.
	Forget(ctx context.Context, query string) (int, error)
}

type ConversationRepository interface {
	LoadConversations(ctx context.Context) ([]ConversationEntry, error)
	// SaveConversation appends one exchange and evicts the oldest entries
	// beyond the collection cap.
	SaveConversation(ctx context.Context, user, assistant string) error
}

type DigestRepository interface {
	LoadDigests(ctx context.Context) ([]Digest, error)
	// SaveDigests atomically replaces the whole collection, including with
	// an empty set: stale digests never survive a recomputation.
	SaveDigests(ctx context.Context, digests []Digest) error
}
