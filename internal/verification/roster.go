package verification

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"relief/pkg/platform/sentinel"
)

// RosterMember is one row of a fund's eligibility roster. The two numeric
// challenge fields are stored bcrypt-hashed; the roster is membership
// evidence, not a directory, so plaintext never needs to round-trip.
type RosterMember struct {
	FundCode  string
	MemberID  string
	YearHash  string
	DigitHash string
}

// RosterStore resolves roster members per fund.
type RosterStore interface {
	FindMember(ctx context.Context, fundCode, memberID string) (RosterMember, error)
}

// HashRosterField prepares a challenge field for storage.
func HashRosterField(value string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// matches compares a submitted answer against the stored hashes.
func (m RosterMember) matches(answer RosterAnswer) bool {
	if bcrypt.CompareHashAndPassword([]byte(m.YearHash), []byte(answer.MemberYear)) != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(m.DigitHash), []byte(answer.MemberDigit)) == nil
}

// InMemoryRosterStore backs dev wiring and tests.
type InMemoryRosterStore struct {
	mu      sync.RWMutex
	members map[string]RosterMember // key: fundCode + "/" + memberID
}

func NewInMemoryRosterStore() *InMemoryRosterStore {
	return &InMemoryRosterStore{members: make(map[string]RosterMember)}
}

func (s *InMemoryRosterStore) Add(member RosterMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[member.FundCode+"/"+member.MemberID] = member
}

func (s *InMemoryRosterStore) FindMember(_ context.Context, fundCode, memberID string) (RosterMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.members[fundCode+"/"+memberID]; ok {
		return m, nil
	}
	return RosterMember{}, sentinel.ErrNotFound
}
