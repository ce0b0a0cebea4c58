package digest

import "sort"

// counter counts string keys while remembering first-seen order, so equal
// counts rank deterministically (insertion-stable), run after run.
type counter struct {
	keys   []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key]++
}

func (c *counter) get(key string) int {
	return c.counts[key]
}

func (c *counter) has(key string) bool {
	_, ok := c.counts[key]
	return ok
}

func (c *counter) len() int {
	return len(c.keys)
}

func (c *counter) sum() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// pairs returns every key with its count in first-seen order.
func (c *counter) pairs() []KeyCount {
	out := make([]KeyCount, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, KeyCount{Key: k, Count: c.counts[k]})
	}
	return out
}

// top returns the n most frequent keys, ties in first-seen order.
func (c *counter) top(n int) []KeyCount {
	out := c.pairs()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// stringSet is a set that remembers insertion order.
type stringSet struct {
	keys []string
	seen map[string]bool
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]bool)}
}

func (s *stringSet) add(key string) {
	if !s.seen[key] {
		s.seen[key] = true
		s.keys = append(s.keys, key)
	}
}

func (s *stringSet) has(key string) bool {
	return s.seen[key]
}

// diff returns the members of s absent from other, in insertion order.
func (s *stringSet) diff(other *stringSet) []string {
	var out []string
	for _, k := range s.keys {
		if other == nil || !other.has(k) {
			out = append(out, k)
		}
	}
	return out
}
