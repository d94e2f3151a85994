package quality

import "sync"

// HashStore is the batch-scoped duplicate ledger. It is the only shared
// mutable state between pipeline runs, so check-and-insert is one atomic
// step under the lock.
type HashStore struct {
	mu          sync.Mutex
	maxDistance int
	seen        map[string]string // phash -> first document id
}

// NewHashStore builds an empty ledger. maxDistance is the Hamming tolerance
// for near-duplicate matching; 0 means exact match only.
func NewHashStore(maxDistance int) *HashStore {
	if maxDistance < 0 {
		maxDistance = 0
	}
	return &HashStore{
		maxDistance: maxDistance,
		seen:        make(map[string]string),
	}
}

// CheckAndInsert reports whether hash matches any prior entry and records it.
// The hash is inserted on every invocation, pass or fail, so a document
// submitted twice in one batch is flagged on its second occurrence.
func (s *HashStore) CheckAndInsert(hash, docID string) (dup bool, priorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.seen[hash]; ok {
		return true, id
	}
	if s.maxDistance > 0 {
		for h, id := range s.seen {
			if HammingDistance(hash, h) <= s.maxDistance {
				s.seen[hash] = docID
				return true, id
			}
		}
	}
	s.seen[hash] = docID
	return false, ""
}

// Len returns the number of distinct hashes recorded so far.
func (s *HashStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
