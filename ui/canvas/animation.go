package canvas

import (
	"math"
	"time"

	"fyne.io/fyne/v2"

	"light-table/pkg/geometry"
)

// fitTransform returns the view that frames bounds inside a w x h viewport
// with a small margin, centered. Reports false when either is degenerate.
func fitTransform(bounds geometry.Rect, w, h float64) (geometry.ViewTransform, bool) {
	if bounds.Width <= 0 || bounds.Height <= 0 || w <= 0 || h <= 0 {
		return geometry.ViewTransform{}, false
	}
	scale := math.Min(w/bounds.Width, h/bounds.Height) * fitMargin
	scale = geometry.ClampScale(scale)
	c := bounds.Center()
	return geometry.ViewTransform{
		X:     w/2 - c.X*scale,
		Y:     h/2 - c.Y*scale,
		Scale: scale,
	}, true
}

// FitAll animates the view to frame every item in the scene.
func (cc *CompareCanvas) FitAll() {
	bounds, ok := cc.scene.ContentBounds()
	if !ok {
		return
	}
	cc.fitTo(bounds)
}

// ViewItem animates the view to frame a single item.
func (cc *CompareCanvas) ViewItem(id string) {
	t, ok := cc.scene.Transform(id)
	if !ok {
		return
	}
	cc.fitTo(t.AABB())
}

// ViewSelection animates the view to frame the current selection, or
// everything when nothing is selected.
func (cc *CompareCanvas) ViewSelection() {
	sel := cc.scene.Selection()
	if len(sel) == 0 {
		cc.FitAll()
		return
	}
	var bounds geometry.Rect
	first := true
	for _, id := range sel {
		t, ok := cc.scene.Transform(id)
		if !ok {
			continue
		}
		if first {
			bounds = t.AABB()
			first = false
		} else {
			bounds = bounds.Union(t.AABB())
		}
	}
	if first {
		return
	}
	cc.fitTo(bounds)
}

// ActualSize animates the view to 1:1 scale about the viewport center.
func (cc *CompareCanvas) ActualSize() {
	cursor := cc.viewportCenter()
	target := cc.currentTarget().ZoomAt(cursor, 1)
	cc.animateView(target, viewAnimDuration, fyne.AnimationEaseInOut)
}

// ZoomIn steps the zoom in about the viewport center.
func (cc *CompareCanvas) ZoomIn() { cc.zoomAboutCenter(zoomStep) }

// ZoomOut steps the zoom out about the viewport center.
func (cc *CompareCanvas) ZoomOut() { cc.zoomAboutCenter(1 / zoomStep) }

func (cc *CompareCanvas) zoomAboutCenter(factor float64) {
	base := cc.currentTarget()
	target := base.ZoomAt(cc.viewportCenter(), base.Scale*factor)
	cc.animateView(target, wheelAnimDuration, fyne.AnimationEaseOut)
}

func (cc *CompareCanvas) viewportCenter() geometry.Point2D {
	size := cc.Size()
	return geometry.NewPoint2D(float64(size.Width)/2, float64(size.Height)/2)
}

func (cc *CompareCanvas) fitTo(bounds geometry.Rect) {
	size := cc.Size()
	target, ok := fitTransform(bounds, float64(size.Width), float64(size.Height))
	if !ok {
		return
	}
	cc.animateView(target, viewAnimDuration, fyne.AnimationEaseInOut)
}

// currentTarget is the view a new zoom should build on: the in-flight
// animation's destination if one is running, else the live view. Chained
// wheel events compose against the target, never the half-way view.
func (cc *CompareCanvas) currentTarget() geometry.ViewTransform {
	if cc.animating {
		return cc.animTarget
	}
	return cc.scene.View()
}

func (cc *CompareCanvas) animateView(target geometry.ViewTransform, d time.Duration, curve fyne.AnimationCurve) {
	cc.stopAnimation()
	from := cc.scene.View()
	if from == target {
		return
	}
	cc.animTarget = target
	cc.animating = true
	cc.anim = &fyne.Animation{
		Duration: d,
		Curve:    curve,
		Tick: func(p float32) {
			f := float64(p)
			cc.scene.SetView(geometry.ViewTransform{
				X:     from.X + (target.X-from.X)*f,
				Y:     from.Y + (target.Y-from.Y)*f,
				Scale: from.Scale + (target.Scale-from.Scale)*f,
			})
			if p >= 1 {
				cc.animating = false
				cc.anim = nil
			}
		},
	}
	cc.anim.Start()
}

func (cc *CompareCanvas) stopAnimation() {
	if cc.anim != nil {
		cc.anim.Stop()
		cc.anim = nil
	}
	cc.animating = false
}
