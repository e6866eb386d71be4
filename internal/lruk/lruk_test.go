package lruk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocateFreeThenAdmit(t *testing.T) {
	m := New(3)
	assert.Equal(t, Stats{Free: 3, Cold: 0, Hot: 0}, m.Stats())

	s := m.AllocateFree()
	assert.GreaterOrEqual(t, s, int32(0))
	m.Admit(s)
	assert.Equal(t, Stats{Free: 2, Cold: 1, Hot: 0}, m.Stats())
}

func TestSecondTouchPromotesToHot(t *testing.T) {
	m := New(2)
	s := m.AllocateFree()
	m.Admit(s)
	assert.Equal(t, Stats{Free: 1, Cold: 1, Hot: 0}, m.Stats())

	m.Touch(s)
	assert.Equal(t, Stats{Free: 1, Cold: 0, Hot: 1}, m.Stats())
}

func TestEvictCandidatePrefersCold(t *testing.T) {
	m := New(2)
	a := m.AllocateFree()
	m.Admit(a)
	b := m.AllocateFree()
	m.Admit(b)
	m.Touch(b)
	m.Touch(b) // promote b to hot

	cand := m.EvictCandidate()
	assert.Equal(t, a, cand, "cold candidate must be preferred over hot")
}

func TestEvictReturnsSlotToFree(t *testing.T) {
	m := New(1)
	s := m.AllocateFree()
	m.Admit(s)
	m.Evict(s)
	assert.Equal(t, Stats{Free: 1, Cold: 0, Hot: 0}, m.Stats())

	s2 := m.AllocateFree()
	assert.Equal(t, s, s2)
}

func TestHotPromotionDemotesTailWhenAtCapacity(t *testing.T) {
	// capacity 4, hot fraction 50% -> hot capacity 2.
	m := NewWithFractions(4, 0.5, 0.5)
	var slots []int32
	for i := 0; i < 4; i++ {
		s := m.AllocateFree()
		m.Admit(s)
		slots = append(slots, s)
	}
	// Promote the first two to hot, filling hot capacity.
	m.Touch(slots[0])
	m.Touch(slots[0])
	m.Touch(slots[1])
	m.Touch(slots[1])
	assert.Equal(t, Stats{Free: 0, Cold: 2, Hot: 2}, m.Stats())

	// Promoting a third slot must demote hot's tail (slots[0], the least
	// recently touched hot entry) back to cold rather than growing hot
	// past capacity.
	m.Touch(slots[2])
	m.Touch(slots[2])
	assert.Equal(t, Stats{Free: 0, Cold: 2, Hot: 2}, m.Stats())
}

func TestNextCandidateWalksPastPinned(t *testing.T) {
	m := New(3)
	var slots []int32
	for i := 0; i < 3; i++ {
		s := m.AllocateFree()
		m.Admit(s)
		slots = append(slots, s)
	}
	first := m.EvictCandidate()
	second := m.NextCandidate(first)
	assert.NotEqual(t, first, second)
}
