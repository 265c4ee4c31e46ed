package imagecache

import (
	"fmt"
	"image"
	"sort"
)

// Region represents a rectangular region in a texture page.
type Region struct {
	X, Y          int
	Width, Height int
}

// IsValid returns true if the region has valid dimensions.
func (r Region) IsValid() bool {
	return r.Width > 0 && r.Height > 0
}

// String returns a string representation of the region.
func (r Region) String() string {
	return fmt.Sprintf("Region(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// span is a free horizontal interval on a shelf.
type span struct {
	x, w int
}

// shelf is a horizontal strip of the page. Items on a shelf share its
// top edge; the shelf height is fixed once the shelf is opened.
type shelf struct {
	y      int
	height int
	free   []span // sorted by x, never adjacent
	used   int    // live allocations on this shelf
}

// findSpan returns the index of the first free span at least w wide, or -1.
func (s *shelf) findSpan(w int) int {
	for i, sp := range s.free {
		if sp.w >= w {
			return i
		}
	}
	return -1
}

// release returns [x, x+w) to the free list, merging with neighbours.
func (s *shelf) release(x, w int) {
	i := sort.Search(len(s.free), func(i int) bool { return s.free[i].x > x })
	s.free = append(s.free, span{})
	copy(s.free[i+1:], s.free[i:])
	s.free[i] = span{x: x, w: w}

	// Merge with the following span.
	if i+1 < len(s.free) && s.free[i].x+s.free[i].w == s.free[i+1].x {
		s.free[i].w += s.free[i+1].w
		s.free = append(s.free[:i+1], s.free[i+2:]...)
	}
	// Merge with the preceding span.
	if i > 0 && s.free[i-1].x+s.free[i-1].w == s.free[i].x {
		s.free[i-1].w += s.free[i].w
		s.free = append(s.free[:i], s.free[i+1:]...)
	}
}

// shelfAllocator packs rectangles into shelves and supports releasing
// them again, so evicted images free space for later allocations.
//
// Padding is added to the right and bottom of every rectangle. The
// allocator works on a (width+padding) x (height+padding) area so an image
// as large as the page itself still fits.
type shelfAllocator struct {
	width   int // padded
	height  int // padded
	padding int
	shelves []*shelf

	allocCount int
	usedArea   int
}

// newShelfAllocator creates an allocator for a width x height page.
func newShelfAllocator(width, height, padding int) *shelfAllocator {
	if padding < 0 {
		padding = 0
	}
	return &shelfAllocator{
		width:   width + padding,
		height:  height + padding,
		padding: padding,
		shelves: make([]*shelf, 0, 16),
	}
}

// allocate finds space for a w x h rectangle.
// Returns false if the rectangle does not fit.
func (a *shelfAllocator) allocate(w, h int) (Region, bool) {
	if w <= 0 || h <= 0 {
		return Region{}, false
	}
	pw, ph := w+a.padding, h+a.padding
	if pw > a.width || ph > a.height {
		return Region{}, false
	}

	// Best fit by shelf height: the lowest shelf tall enough with room.
	best, bestSpan := -1, -1
	for i, s := range a.shelves {
		if s.height < ph {
			continue
		}
		if best >= 0 && s.height >= a.shelves[best].height {
			continue
		}
		if j := s.findSpan(pw); j >= 0 {
			best, bestSpan = i, j
		}
	}

	// Avoid burying small items in a much taller shelf while the page
	// still has room for a new one.
	if best >= 0 && a.shelves[best].height > 2*ph && a.canOpen(ph) {
		best = -1
	}

	if best < 0 {
		if !a.canOpen(ph) {
			return Region{}, false
		}
		a.open(ph)
		best, bestSpan = len(a.shelves)-1, 0
	}

	s := a.shelves[best]
	sp := &s.free[bestSpan]
	region := Region{X: sp.x, Y: s.y, Width: w, Height: h}
	sp.x += pw
	sp.w -= pw
	if sp.w == 0 {
		s.free = append(s.free[:bestSpan], s.free[bestSpan+1:]...)
	}
	s.used++

	a.allocCount++
	a.usedArea += w * h
	return region, true
}

// canOpen reports whether a new shelf of height ph fits below the last one.
func (a *shelfAllocator) canOpen(ph int) bool {
	return a.bottom()+ph <= a.height
}

func (a *shelfAllocator) bottom() int {
	if len(a.shelves) == 0 {
		return 0
	}
	last := a.shelves[len(a.shelves)-1]
	return last.y + last.height
}

func (a *shelfAllocator) open(ph int) {
	a.shelves = append(a.shelves, &shelf{
		y:      a.bottom(),
		height: ph,
		free:   []span{{x: 0, w: a.width}},
	})
}

// release frees a region previously returned by allocate.
func (a *shelfAllocator) release(r Region) {
	idx := sort.Search(len(a.shelves), func(i int) bool { return a.shelves[i].y >= r.Y })
	if idx == len(a.shelves) || a.shelves[idx].y != r.Y {
		return
	}
	s := a.shelves[idx]
	s.release(r.X, r.Width+a.padding)
	s.used--
	a.allocCount--
	a.usedArea -= r.Width * r.Height

	if s.used == 0 {
		s.free = append(s.free[:0], span{x: 0, w: a.width})
		a.compact()
	}
}

// compact merges runs of empty shelves and drops empty shelves at the
// bottom of the page so their height can be reused.
func (a *shelfAllocator) compact() {
	out := a.shelves[:0]
	for _, s := range a.shelves {
		if n := len(out); n > 0 && s.used == 0 && out[n-1].used == 0 {
			out[n-1].height += s.height
			continue
		}
		out = append(out, s)
	}
	for len(out) > 0 && out[len(out)-1].used == 0 {
		out = out[:len(out)-1]
	}
	for i := len(out); i < len(a.shelves); i++ {
		a.shelves[i] = nil
	}
	a.shelves = out
}

// empty reports whether no allocation is live.
func (a *shelfAllocator) empty() bool {
	return a.allocCount == 0
}

// utilization returns the fraction of the page area in use (0.0 to 1.0).
func (a *shelfAllocator) utilization() float64 {
	total := (a.width - a.padding) * (a.height - a.padding)
	if total <= 0 {
		return 0
	}
	return float64(a.usedArea) / float64(total)
}

// rectOf converts a region to an image.Rectangle.
func rectOf(r Region) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}
