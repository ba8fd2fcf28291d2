package dla

// ParticleStore is an append-only sequence of particle positions. A
// particle's identity is its index. Only the last entry may be moved or
// removed; earlier entries are frozen.
type ParticleStore struct {
	pos []Position
}

// NewParticleStore returns an empty store with room for capacity particles.
func NewParticleStore(capacity int) *ParticleStore {
	if capacity < 0 {
		capacity = 0
	}
	return &ParticleStore{pos: make([]Position, 0, capacity)}
}

// Add appends a particle and returns its index.
func (s *ParticleStore) Add(p Position) int {
	s.pos = append(s.pos, p)
	return len(s.pos) - 1
}

// RemoveLast drops the most recently added particle. It is a no-op on an
// empty store.
func (s *ParticleStore) RemoveLast() {
	if len(s.pos) == 0 {
		return
	}
	s.pos = s.pos[:len(s.pos)-1]
}

// Last returns the position of the most recently added particle.
func (s *ParticleStore) Last() Position {
	if len(s.pos) == 0 {
		return Origin
	}
	return s.pos[len(s.pos)-1]
}

// SetLast moves the most recently added particle.
func (s *ParticleStore) SetLast(p Position) {
	if len(s.pos) == 0 {
		return
	}
	s.pos[len(s.pos)-1] = p
}

// At returns the position of particle i.
func (s *ParticleStore) At(i int) Position { return s.pos[i] }

// Len returns the number of particles held.
func (s *ParticleStore) Len() int { return len(s.pos) }

// Reset empties the store, keeping its capacity.
func (s *ParticleStore) Reset() { s.pos = s.pos[:0] }

// Positions returns a copy of every stored position in insertion order.
func (s *ParticleStore) Positions() []Position {
	return append([]Position(nil), s.pos...)
}
