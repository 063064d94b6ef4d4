package animator

// pool is a growable list whose backing array never shrinks. Slots grown
// past the high-water mark are materialized by fill, so callers reuse the
// same elements frame after frame and allocation stops once the list has
// reached its steady-state size.
type pool[T any] struct {
	items []T
	high  int
	fill  func() T
}

// resize exposes exactly n elements, filling any slot not seen before.
func (p *pool[T]) resize(n int) []T {
	if n > cap(p.items) {
		grown := make([]T, n, n*2)
		copy(grown, p.items[:p.high])
		p.items = grown
	} else {
		p.items = p.items[:n]
	}
	for i := p.high; i < n; i++ {
		if p.fill != nil {
			p.items[i] = p.fill()
		}
	}
	if n > p.high {
		p.high = n
	}
	return p.items
}

// growFloats extends s to length n without losing capacity. Exposed slots
// keep whatever values they held; callers overwrite them.
func growFloats(s []float64, n int) []float64 {
	if cap(s) < n {
		grown := make([]float64, n, n*2)
		copy(grown, s)
		return grown
	}
	return s[:n]
}
