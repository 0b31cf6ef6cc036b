package rect

import "math"

type Rect struct {
	Left, Top, Right, Bottom float64
}

func NewRect(left, top, right, bottom float64) *Rect {
	return &Rect{
		Left:   left,
		Top:    top,
		Right:  right,
		Bottom: bottom,
	}
}

func NewRectEmpty() *Rect {
	return &Rect{}
}

// Around returns the smallest rect holding every point. A single point
// gives a zero-area rect, which IsEmpty reports as empty.
func Around(xs, ys []float64) *Rect {
	if len(xs) == 0 || len(xs) != len(ys) {
		return NewRectEmpty()
	}
	r := NewRect(xs[0], ys[0], xs[0], ys[0])
	for i := 1; i < len(xs); i++ {
		r.Left = math.Min(r.Left, xs[i])
		r.Top = math.Min(r.Top, ys[i])
		r.Right = math.Max(r.Right, xs[i])
		r.Bottom = math.Max(r.Bottom, ys[i])
	}
	return r
}

// Inflate grows r by dx and dy on every side. Negative values shrink it.
func (r *Rect) Inflate(dx, dy float64) {
	r.Left -= dx
	r.Top -= dy
	r.Right += dx
	r.Bottom += dy
}

func (r *Rect) IsEmpty() bool {
	return r.Left >= r.Right || r.Top >= r.Bottom
}

func (r *Rect) Width() float64 {
	return r.Right - r.Left
}

func (r *Rect) Height() float64 {
	return r.Bottom - r.Top
}

func (r *Rect) ContainsPoint(x, y float64) bool {
	return x >= r.Left && x <= r.Right &&
		y >= r.Top && y <= r.Bottom
}

// MapTo projects a point of r onto dst, keeping relative position. A
// degenerate axis maps to the center of dst.
func (r *Rect) MapTo(dst *Rect, x, y float64) (float64, float64) {
	mx := dst.Left + dst.Width()/2
	my := dst.Top + dst.Height()/2
	if r.Width() > 0 {
		mx = dst.Left + (x-r.Left)/r.Width()*dst.Width()
	}
	if r.Height() > 0 {
		my = dst.Top + (y-r.Top)/r.Height()*dst.Height()
	}
	return mx, my
}

func (r *Rect) Clone() *Rect {
	return &Rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
}
