package shape

import (
	"github.com/pkg/errors"
)

// compiledView is a View with every symbolic extent substituted.
type compiledView struct {
	sizes   []int
	strides []int
	starts  []int
	bounds  []int // -1 for axes that read no source elements
	fake    []bool
}

// Indexer is a Tracker compiled against one set of bindings: a pure function
// from logical linear index to (physical index, valid). It is built once and
// then solved once per element.
type Indexer struct {
	views []compiledView
	shape []int
	numel int
}

// Indexer composes the view stack into a single index function, substituting
// symbolic dimensions from b. It fails with ErrUnboundDim for a missing
// binding and ErrReshapeMismatch when a deferred reshape does not preserve
// the element count once resolved.
func (t Tracker) Indexer(b Bindings) (*Indexer, error) {
	ix := &Indexer{views: make([]compiledView, len(t.views))}
	prevNumel := -1
	for k, v := range t.views {
		base, err := ResolveAll(v.Base, b)
		if err != nil {
			return nil, err
		}
		if prevNumel >= 0 && NumElements(base) != prevNumel {
			return nil, errors.Wrapf(ErrReshapeMismatch, "view %d reads %d elements from %d",
				k, NumElements(base), prevNumel)
		}
		baseStrides := rowMajorStrides(base)
		cv := compiledView{
			sizes:   make([]int, len(v.Axes)),
			strides: make([]int, len(v.Axes)),
			starts:  make([]int, len(v.Axes)),
			bounds:  make([]int, len(v.Axes)),
			fake:    make([]bool, len(v.Axes)),
		}
		for i, a := range v.Axes {
			size, err := a.Size.Resolve(b)
			if err != nil {
				return nil, err
			}
			cv.sizes[i] = size
			cv.starts[i] = a.Start
			cv.fake[i] = a.Fake
			if a.Src < 0 {
				cv.bounds[i] = -1
				continue
			}
			mustAxis(a.Src, len(base))
			cv.bounds[i] = base[a.Src]
			cv.strides[i] = baseStrides[a.Src]
		}
		ix.views[k] = cv
		prevNumel = NumElements(cv.sizes)
	}
	if n := len(ix.views); n > 0 {
		ix.shape = append([]int(nil), ix.views[n-1].sizes...)
	}
	ix.numel = NumElements(ix.shape)
	return ix, nil
}

// Shape returns the concrete logical shape.
func (ix *Indexer) Shape() []int {
	return ix.shape
}

// Len returns the number of logical elements.
func (ix *Indexer) Len() int {
	return ix.numel
}

// Index maps logical linear index i to a physical buffer index. valid is false
// when the position reads outside the source buffer (slicing or padding);
// the returned index must not be used then.
func (ix *Indexer) Index(i int) (int, bool) {
	idx := i
	for k := len(ix.views) - 1; k >= 0; k-- {
		v := &ix.views[k]
		out := 0
		rem := idx
		for a := len(v.sizes) - 1; a >= 0; a-- {
			c := 0
			if size := v.sizes[a]; size > 0 {
				c = rem % size
				rem /= size
			}
			if v.bounds[a] < 0 {
				continue
			}
			if v.fake[a] {
				c = 0
			}
			src := c + v.starts[a]
			if src < 0 || src >= v.bounds[a] {
				return 0, false
			}
			out += src * v.strides[a]
		}
		idx = out
	}
	return idx, true
}

// Table resolves every logical index at once. Invalid positions are -1.
func (ix *Indexer) Table() []int {
	out := make([]int, ix.numel)
	for i := range out {
		p, ok := ix.Index(i)
		if !ok {
			p = -1
		}
		out[i] = p
	}
	return out
}
