package shape

// Axis describes one logical axis of a View.
type Axis struct {
	// Size is the logical extent of the axis.
	Size Dim
	// Src is the index into View.Base this axis walks, or -1 for an axis
	// inserted by broadcasting that reads no source elements at all.
	Src int
	// Start shifts coordinates: logical coordinate c reads source coordinate
	// c+Start. Slicing moves it forward, padding moves it backward.
	Start int
	// Fake marks a broadcast axis: every coordinate reads source coordinate
	// Start, so the physical index does not change along it.
	Fake bool
}

// View is one layer of shape history. Base is the row-major source space the
// layer reads from (its strides are derived at solve time, so symbolic extents
// are fine); Axes is the logical shape exposed to the layer above.
type View struct {
	Base []Dim
	Axes []Axis
}

func identityView(dims []Dim) View {
	v := View{
		Base: append([]Dim(nil), dims...),
		Axes: make([]Axis, len(dims)),
	}
	for i, d := range dims {
		v.Axes[i] = Axis{Size: d, Src: i}
	}
	return v
}

// Shape returns the logical shape of the view.
func (v View) Shape() []Dim {
	out := make([]Dim, len(v.Axes))
	for i, a := range v.Axes {
		out[i] = a.Size
	}
	return out
}

func (v View) clone() View {
	return View{
		Base: append([]Dim(nil), v.Base...),
		Axes: append([]Axis(nil), v.Axes...),
	}
}

// isIdentity reports whether the view reads its base one-for-one in order.
func (v View) isIdentity() bool {
	if len(v.Axes) != len(v.Base) {
		return false
	}
	for i, a := range v.Axes {
		if a.Fake || a.Src != i || a.Start != 0 || a.Size != v.Base[i] {
			return false
		}
	}
	return true
}
