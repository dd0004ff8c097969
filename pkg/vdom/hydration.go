package vdom

import (
	"strconv"
	"sync/atomic"
)

// HIDGenerator hands out the hydration ids stamped on deferred roots.
// It is safe for concurrent use; the zero value starts at "h1".
type HIDGenerator struct {
	n atomic.Uint32
}

// NewHIDGenerator returns a generator starting at "h1".
func NewHIDGenerator() *HIDGenerator {
	return &HIDGenerator{}
}

// Next returns the next id.
func (g *HIDGenerator) Next() string {
	return "h" + strconv.FormatUint(uint64(g.n.Add(1)), 10)
}

// Current reports how many ids have been issued.
func (g *HIDGenerator) Current() uint32 {
	return g.n.Load()
}

// FindByHID returns the first node in tree order whose HID is hid.
func FindByHID(n *VNode, hid string) *VNode {
	if n == nil {
		return nil
	}
	if n.HID == hid {
		return n
	}
	for _, c := range n.Children {
		if found := FindByHID(c, hid); found != nil {
			return found
		}
	}
	return nil
}
