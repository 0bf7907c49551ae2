package cloud

import (
	"sync"
	"time"

	"github.com/waqasraz/ockam/enroll"
)

// DefaultTokenTTL bounds how long an issued enrollment token can be
// redeemed.
const DefaultTokenTTL = 10 * time.Minute

type tokenRecord struct {
	attributes enroll.Attributes
	expiresAt  time.Time
}

// TokenStore holds issued enrollment tokens until they are redeemed or
// expire. Every token redeems at most once.
type TokenStore struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	tokens map[enroll.Token]tokenRecord
}

// NewTokenStore creates a store whose tokens expire after ttl. A zero
// ttl selects DefaultTokenTTL.
func NewTokenStore(ttl time.Duration) *TokenStore {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenStore{
		ttl:    ttl,
		now:    time.Now,
		tokens: make(map[enroll.Token]tokenRecord),
	}
}

// Put records a freshly issued token and the attributes it carries.
// Expired entries are swept opportunistically on each insert.
func (s *TokenStore) Put(token enroll.Token, attributes enroll.Attributes) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for issued, record := range s.tokens {
		if now.After(record.expiresAt) {
			delete(s.tokens, issued)
		}
	}
	s.tokens[token] = tokenRecord{attributes: attributes, expiresAt: now.Add(s.ttl)}
}

// Redeem consumes a token and returns the attributes it was bound to.
// Unknown, already redeemed and expired tokens all report false.
func (s *TokenStore) Redeem(token enroll.Token) (enroll.Attributes, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tokens[token]
	if !ok {
		return nil, false
	}
	delete(s.tokens, token)
	if s.now().After(record.expiresAt) {
		return nil, false
	}
	return record.attributes, true
}

// Len reports how many unredeemed tokens the store holds, counting
// entries that expired but have not been swept yet.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
