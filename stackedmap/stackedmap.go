// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap

// StackedMap maintains maps in a stack.
// Each map inherits the key/value pairs of the map at the lower level.
// It acts as a single map with save-restore/snapshot-revert behavior, which
// is what dispatch operations need for validate-then-commit semantics.
type StackedMap struct {
	src            MapGetter
	mapStack       stack
	keyRevisionMap map[any]*revStack
}

type level struct {
	kvs map[any]any
}

func newLevel() *level {
	return &level{kvs: make(map[any]any)}
}

// MapGetter defines the getter method of the backing map.
type MapGetter func(key any) (value any, exist bool)

// New creates an instance of StackedMap.
// src acts as the source of data.
func New(src MapGetter) *StackedMap {
	return &StackedMap{
		src,
		stack{},
		make(map[any]*revStack),
	}
}

// Depth returns the depth of the stack.
func (sm *StackedMap) Depth() int {
	return len(sm.mapStack)
}

// Push pushes a new map on the stack.
// It returns the stack depth before the push.
func (sm *StackedMap) Push() int {
	sm.mapStack.push(newLevel())
	return len(sm.mapStack) - 1
}

// Pop pops the map at the top of the stack.
// It reverts all Put operations since the last Push.
func (sm *StackedMap) Pop() {
	top := sm.mapStack.top()
	for key := range top.kvs {
		revs := sm.keyRevisionMap[key]
		revs.pop()
		if len(*revs) == 0 {
			delete(sm.keyRevisionMap, key)
		}
	}
	sm.mapStack.pop()
}

// PopTo pops maps until the stack depth reaches depth.
func (sm *StackedMap) PopTo(depth int) {
	for len(sm.mapStack) > depth {
		sm.Pop()
	}
}

// Collapse folds all maps at depth and above into the map just below depth,
// keeping the newest value for every key. It is the commit counterpart of
// PopTo: the effects of all Puts since that depth survive, but the revert
// points are gone.
func (sm *StackedMap) Collapse(depth int) {
	if depth < 1 || depth > len(sm.mapStack) {
		return
	}
	base := sm.mapStack[depth-1]
	merged := make(map[any]any)
	for _, lvl := range sm.mapStack[depth:] {
		for k, v := range lvl.kvs {
			merged[k] = v
		}
	}
	for k, v := range merged {
		revs := sm.keyRevisionMap[k]
		// drop revision entries of the removed levels
		for len(*revs) > 0 && revs.top() > depth-1 {
			revs.pop()
		}
		// the key now lives in the base level
		if len(*revs) == 0 || revs.top() != depth-1 {
			revs.push(depth - 1)
		}
		base.kvs[k] = v
	}
	sm.mapStack = sm.mapStack[:depth]
}

// Get gets the value for the given key.
// The second return value indicates whether the key was found.
func (sm *StackedMap) Get(key any) (any, bool) {
	if revs, ok := sm.keyRevisionMap[key]; ok {
		lvl := sm.mapStack[revs.top()]
		if v, ok := lvl.kvs[key]; ok {
			return v, true
		}
	}
	return sm.src(key)
}

// Put puts a key/value pair into the map at the stack top.
// It panics if the stack is empty.
func (sm *StackedMap) Put(key, value any) {
	top := sm.mapStack.top()
	_, existed := top.kvs[key]
	top.kvs[key] = value
	if existed {
		return
	}

	// record the key revision for fast access
	rev := len(sm.mapStack) - 1
	if revs, ok := sm.keyRevisionMap[key]; ok {
		revs.push(rev)
	} else {
		sm.keyRevisionMap[key] = &revStack{rev}
	}
}

// stack ops
type stack []*level

func (s *stack) pop() {
	*s = (*s)[:len(*s)-1]
}

func (s *stack) push(v *level) {
	*s = append(*s, v)
}

func (s stack) top() *level {
	return s[len(s)-1]
}

type revStack []int

func (s *revStack) pop() {
	*s = (*s)[:len(*s)-1]
}

func (s *revStack) push(v int) {
	*s = append(*s, v)
}

func (s revStack) top() int {
	return s[len(s)-1]
}
