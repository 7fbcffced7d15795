package canvas

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"light-table/internal/catalog"
	"light-table/pkg/colorutil"
	"light-table/pkg/geometry"
)

// digitPatterns contains 3x5 pixel patterns for digits 0-9, used for
// annotation index labels. Each digit is 5 rows of 3 bits.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// draw renders the whole workspace into a w x h buffer. The raster can be
// larger than the widget's logical size on high-DPI outputs, so the view is
// rescaled by the pixel ratio before painting.
func (cc *CompareCanvas) draw(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	fillRGBA(out, colorutil.CanvasBackground)
	if w == 0 || h == 0 {
		return out
	}

	logical := cc.scene.View()
	ps := 1.0
	if size := cc.Size(); size.Width > 0 {
		ps = float64(w) / float64(size.Width)
	}
	view := geometry.ViewTransform{X: logical.X * ps, Y: logical.Y * ps, Scale: logical.Scale * ps}

	if cc.showGrid {
		drawGrid(out, view)
	}

	for _, id := range cc.scene.ZOrder() {
		t, ok := cc.scene.Transform(id)
		if !ok {
			continue
		}
		if cc.surfaces == nil {
			drawPlaceholder(out, view, t)
			continue
		}
		surf, ok := cc.surfaces.Surface(id)
		if !ok {
			cc.surfaces.Request(id)
			drawPlaceholder(out, view, t)
			continue
		}
		compositeItem(out, view, t, pickVariant(surf, logical.Scale))
	}

	cc.drawAnnotations(out, view, ps)
	cc.drawSelection(out, view, ps)
	cc.drawMarquee(out, ps)
	return out
}

// gridStep returns the world-space grid spacing for a view scale, doubling
// the base spacing until dots land at least minGridSpacingPx apart on
// screen.
func gridStep(scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	step := baseGridSpacing
	for step*scale < minGridSpacingPx {
		step *= 2
	}
	return step
}

func drawGrid(out *image.RGBA, view geometry.ViewTransform) {
	step := gridStep(view.Scale)
	if step <= 0 {
		return
	}
	b := out.Bounds()
	topLeft := view.ScreenToWorld(geometry.NewPoint2D(float64(b.Min.X), float64(b.Min.Y)))
	bottomRight := view.ScreenToWorld(geometry.NewPoint2D(float64(b.Max.X), float64(b.Max.Y)))
	startX := math.Floor(topLeft.X/step) * step
	startY := math.Floor(topLeft.Y/step) * step
	for wy := startY; wy <= bottomRight.Y; wy += step {
		for wx := startX; wx <= bottomRight.X; wx += step {
			p := view.WorldToScreen(geometry.NewPoint2D(wx, wy))
			px, py := int(p.X), int(p.Y)
			setPixel(out, px, py, colorutil.GridDot)
			setPixel(out, px+1, py, colorutil.GridDot)
			setPixel(out, px, py+1, colorutil.GridDot)
			setPixel(out, px+1, py+1, colorutil.GridDot)
		}
	}
}

// pickVariant selects the quarter-resolution surface when the view is
// zoomed far out; sampling the full image there wastes cache bandwidth on
// pixels that collapse to less than a dot.
func pickVariant(s *catalog.Surface, scale float64) *image.RGBA {
	if scale < lowResCutoff && s.Low != nil {
		return s.Low
	}
	return s.Full
}

// compositeItem paints one item by walking its screen-space bounding box
// and inverse-mapping every output pixel through the view and item
// transforms into source coordinates, nearest-neighbor sampled.
func compositeItem(out *image.RGBA, view geometry.ViewTransform, t geometry.ItemTransform, src *image.RGBA) {
	if src == nil || t.Width <= 0 || t.Height <= 0 || view.Scale <= 0 {
		return
	}
	aabb := t.AABB()
	tl := view.WorldToScreen(aabb.TopLeft())
	br := view.WorldToScreen(aabb.BottomRight())

	bounds := out.Bounds()
	x0 := max(int(math.Floor(tl.X)), bounds.Min.X)
	y0 := max(int(math.Floor(tl.Y)), bounds.Min.Y)
	x1 := min(int(math.Ceil(br.X)), bounds.Max.X)
	y1 := min(int(math.Ceil(br.Y)), bounds.Max.Y)
	if x0 >= x1 || y0 >= y1 {
		return
	}

	srcB := src.Bounds()
	srcW, srcH := srcB.Dx(), srcB.Dy()
	sx := float64(srcW) / t.Width
	sy := float64(srcH) / t.Height
	center := t.Center()
	// Precompute the inverse rotation.
	rad := -t.Rotation * math.Pi / 180
	cosR := math.Cos(rad)
	sinR := math.Sin(rad)

	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			wp := view.ScreenToWorld(geometry.NewPoint2D(float64(px)+0.5, float64(py)+0.5))
			lx, ly := wp.X, wp.Y
			if t.Rotation != 0 {
				dx := wp.X - center.X
				dy := wp.Y - center.Y
				lx = center.X + dx*cosR - dy*sinR
				ly = center.Y + dx*sinR + dy*cosR
			}
			u := int((lx - t.X) * sx)
			v := int((ly - t.Y) * sy)
			if u < 0 || v < 0 || u >= srcW || v >= srcH {
				continue
			}
			si := src.PixOffset(srcB.Min.X+u, srcB.Min.Y+v)
			sa := src.Pix[si+3]
			if sa == 0 {
				continue
			}
			di := out.PixOffset(px, py)
			if sa == 255 {
				out.Pix[di] = src.Pix[si]
				out.Pix[di+1] = src.Pix[si+1]
				out.Pix[di+2] = src.Pix[si+2]
				out.Pix[di+3] = 255
				continue
			}
			// Source pixels are alpha-premultiplied.
			inv := uint32(255 - sa)
			out.Pix[di] = uint8(uint32(src.Pix[si]) + uint32(out.Pix[di])*inv/255)
			out.Pix[di+1] = uint8(uint32(src.Pix[si+1]) + uint32(out.Pix[di+1])*inv/255)
			out.Pix[di+2] = uint8(uint32(src.Pix[si+2]) + uint32(out.Pix[di+2])*inv/255)
			out.Pix[di+3] = 255
		}
	}
}

// drawPlaceholder marks an item whose surface has not loaded yet or failed
// to load: the rotated outline with a diagonal cross.
func drawPlaceholder(out *image.RGBA, view geometry.ViewTransform, t geometry.ItemTransform) {
	pts := projectCorners(view, t)
	for i := 0; i < 4; i++ {
		a, b := pts[i], pts[(i+1)%4]
		drawLine(out, int(a.X), int(a.Y), int(b.X), int(b.Y), colorutil.PlaceholderLine, 1)
	}
	drawLine(out, int(pts[0].X), int(pts[0].Y), int(pts[2].X), int(pts[2].Y), colorutil.PlaceholderLine, 1)
	drawLine(out, int(pts[1].X), int(pts[1].Y), int(pts[3].X), int(pts[3].Y), colorutil.PlaceholderLine, 1)
}

func (cc *CompareCanvas) drawAnnotations(out *image.RGBA, view geometry.ViewTransform, ps float64) {
	notes := cc.scene.Annotations()
	if len(notes) == 0 {
		return
	}
	r := int(math.Round(annotationRadiusPx * ps))
	if r < 3 {
		r = 3
	}
	for i, a := range notes {
		t, ok := cc.scene.Transform(a.ItemID)
		if !ok {
			continue
		}
		local := geometry.NewPoint2D(t.X+t.Width*a.XPercent/100, t.Y+t.Height*a.YPercent/100)
		world := geometry.RotatePoint(local, t.Center(), t.Rotation)
		p := view.WorldToScreen(world)
		x, y := int(p.X), int(p.Y)
		drawFilledCircle(out, x, y, r, colorutil.AnnotationFill)
		drawCircle(out, x, y, r, colorutil.White)
		drawLabel(out, strconv.Itoa(i+1), x+r+2, y-r, colorutil.White, int(ps))
	}
}

func (cc *CompareCanvas) drawSelection(out *image.RGBA, view geometry.ViewTransform, ps float64) {
	sel := cc.scene.Selection()
	switch {
	case len(sel) == 1:
		t, ok := cc.scene.Transform(sel[0])
		if !ok {
			return
		}
		drawItemOutline(out, view, t, colorutil.SelectionStroke, 2)
		drawHandleSet(out, handleLayout(t, view), ps)
	case len(sel) > 1:
		for _, id := range sel {
			if t, ok := cc.scene.Transform(id); ok {
				drawItemOutline(out, view, t, colorutil.Dim(colorutil.SelectionStroke, 0.6), 1)
			}
		}
		gt := boxTransform(cc.scene.GroupBounds())
		drawItemOutline(out, view, gt, colorutil.GroupStroke, 2)
		drawHandleSet(out, handleLayout(gt, view), ps)
	}
}

func (cc *CompareCanvas) drawMarquee(out *image.RGBA, ps float64) {
	if cc.gesture.mode != modeMarqueeing {
		return
	}
	a, b := cc.gesture.start, cc.gesture.current
	drawDashedRect(out,
		int(float64(a.X)*ps), int(float64(a.Y)*ps),
		int(float64(b.X)*ps), int(float64(b.Y)*ps),
		colorutil.MarqueeStroke)
}

func drawItemOutline(out *image.RGBA, view geometry.ViewTransform, t geometry.ItemTransform, c color.RGBA, thickness int) {
	pts := projectCorners(view, t)
	for i := 0; i < 4; i++ {
		a, b := pts[i], pts[(i+1)%4]
		drawLine(out, int(a.X), int(a.Y), int(b.X), int(b.Y), c, thickness)
	}
}

func projectCorners(view geometry.ViewTransform, t geometry.ItemTransform) [4]geometry.Point2D {
	corners := t.Corners()
	var pts [4]geometry.Point2D
	for i, c := range corners {
		pts[i] = view.WorldToScreen(c)
	}
	return pts
}

func drawHandleSet(out *image.RGBA, layout []handlePoint, ps float64) {
	size := int(math.Round(handleSizePx * ps))
	if size < 3 {
		size = 3
	}
	half := size / 2
	for _, hp := range layout {
		x, y := int(hp.pos.X), int(hp.pos.Y)
		if hp.kind == handleRotate {
			drawFilledCircle(out, x, y, half+1, colorutil.SelectionStroke)
			continue
		}
		fillRect(out, x-half, y-half, x+half, y+half, colorutil.White)
		drawRect(out, x-half, y-half, x+half, y+half, colorutil.SelectionStroke)
	}
}

// drawDashedRect draws a dashed axis-aligned rectangle between two corners.
func drawDashedRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for x := x0; x <= x1; x++ {
		if (x+y0)%4 < 2 {
			setPixel(img, x, y0, c)
		}
		if (x+y1)%4 < 2 {
			setPixel(img, x, y1, c)
		}
	}
	for y := y0; y <= y1; y++ {
		if (x0+y)%4 < 2 {
			setPixel(img, x0, y, c)
		}
		if (x1+y)%4 < 2 {
			setPixel(img, x1, y, c)
		}
	}
}

// drawLine draws a line using Bresenham's algorithm with thickness.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA, thickness int) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy

	for {
		for tx := 0; tx < thickness; tx++ {
			for ty := 0; ty < thickness; ty++ {
				setPixel(img, x1+tx, y1+ty, c)
			}
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

// drawLabel draws text using the bitmap digit font. Non-digit runes advance
// the cursor without painting.
func drawLabel(img *image.RGBA, text string, x, y int, c color.RGBA, scale int) {
	if scale < 1 {
		scale = 1
	}
	if scale > 6 {
		scale = 6
	}
	cx := x
	for _, ch := range text {
		if ch < '0' || ch > '9' {
			cx += 2 * scale
			continue
		}
		pat := digitPatterns[ch-'0']
		for row := 0; row < 5; row++ {
			for col := 0; col < 3; col++ {
				if pat[row]&(1<<(2-col)) != 0 {
					fillRect(img,
						cx+col*scale, y+row*scale,
						cx+(col+1)*scale-1, y+(row+1)*scale-1, c)
				}
			}
		}
		cx += 4 * scale
	}
}

// drawCircle draws a one-pixel circle outline.
func drawCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	if r <= 0 {
		return
	}
	inner := (r - 1) * (r - 1)
	outer := r * r
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d := dx*dx + dy*dy
			if d > inner && d <= outer {
				setPixel(img, cx+dx, cy+dy, c)
			}
		}
	}
}

func drawFilledCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				setPixel(img, cx+dx, cy+dy, c)
			}
		}
	}
}

func drawRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	for x := x0; x <= x1; x++ {
		setPixel(img, x, y0, c)
		setPixel(img, x, y1, c)
	}
	for y := y0; y <= y1; y++ {
		setPixel(img, x0, y, c)
		setPixel(img, x1, y, c)
	}
}

func fillRGBA(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Pix[i] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
			i += 4
		}
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	i := img.PixOffset(x, y)
	img.Pix[i] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
