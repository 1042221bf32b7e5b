package cache

// A Line is the bookkeeping a cache keeps for one slot. No data is stored.
type Line struct {
	Tag   uint64
	Valid bool
}

// A Set is the group of lines a block may be placed in.
type Set struct {
	ID    int
	Lines []Line
}

func newSet(id, ways int) Set {
	return Set{
		ID:    id,
		Lines: make([]Line, ways),
	}
}

// Ways returns the associativity of the set.
func (s *Set) Ways() int {
	return len(s.Lines)
}

// Lookup returns the way holding a valid line with the given tag.
func (s *Set) Lookup(tag uint64) (int, bool) {
	for way := range s.Lines {
		if s.Lines[way].Valid && s.Lines[way].Tag == tag {
			return way, true
		}
	}

	return 0, false
}

// FirstInvalid returns the lowest way that has never been filled.
func (s *Set) FirstInvalid() (int, bool) {
	for way := range s.Lines {
		if !s.Lines[way].Valid {
			return way, true
		}
	}

	return 0, false
}

// Fill stores tag in way and marks the line valid.
func (s *Set) Fill(way int, tag uint64) {
	s.Lines[way] = Line{Tag: tag, Valid: true}
}

// ValidCount returns the number of valid lines.
func (s *Set) ValidCount() int {
	n := 0
	for _, l := range s.Lines {
		if l.Valid {
			n++
		}
	}

	return n
}
