package cache

// Statistics counts the outcomes of cache accesses.
type Statistics struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Record adds the outcome of one access.
func (s *Statistics) Record(result AccessResult) {
	if result.Hit {
		s.Hits++
		return
	}

	s.Misses++

	if result.Evicted {
		s.Evictions++
	}
}

// Accesses returns the number of accesses recorded.
func (s Statistics) Accesses() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns the fraction of accesses that hit. It is 0 when nothing has
// been recorded.
func (s Statistics) HitRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}

	return float64(s.Hits) / float64(s.Accesses())
}
