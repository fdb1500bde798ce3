package session

import (
	"sync"

	"go.uber.org/zap"
)

const shardCount = 32

type shard struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// Store keeps one Session per user for the lifetime of the process.
// Lookups for different users only contend when they hash to the same shard.
type Store struct {
	shards [shardCount]*shard
	logger *zap.Logger
}

// NewStore creates an empty store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{logger: logger}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[int64]*Session)}
	}
	return s
}

func (s *Store) shardFor(userID int64) *shard {
	h := uint64(userID) * 0x9E3779B97F4A7C15
	return s.shards[h>>59]
}

// Get returns the session for userID, creating an idle one on first contact.
func (s *Store) Get(userID int64) *Session {
	sh := s.shardFor(userID)

	sh.mu.RLock()
	sess, ok := sh.sessions[userID]
	sh.mu.RUnlock()
	if ok {
		return sess
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sess, ok = sh.sessions[userID]; ok {
		return sess
	}
	sess = New(userID, s.logger)
	sh.sessions[userID] = sess
	s.logger.Debug("session created", zap.Int64("chat_id", userID))
	return sess
}

// Len returns the number of known sessions.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}
