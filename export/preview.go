package export

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/vlarkus/blitz/core"
	"github.com/vlarkus/blitz/model"
)

// PreviewOptions controls PNG preview rendering.
type PreviewOptions struct {
	Width, Height int
	// Scale is pixels per field unit. Zero fits every trajectory into the
	// image.
	Scale float64
	// Margin is kept free around the fitted drawing, in pixels.
	Margin float64
}

// DefaultPreviewOptions returns an 800×800 fitted preview.
func DefaultPreviewOptions() PreviewOptions {
	return PreviewOptions{Width: 800, Height: 800, Margin: 40}
}

var (
	previewBackground = color.RGBA{250, 250, 250, 255}
	previewHandle     = color.RGBA{150, 150, 150, 255}
	previewControl    = color.RGBA{20, 20, 20, 255}
	previewSlow       = color.RGBA{40, 90, 220, 255}
	previewFast       = color.RGBA{220, 40, 40, 255}
)

// Preview draws control points, handles and follow points, coloured from
// slow (blue) to fast (red). Trajectories with fewer than two control points
// show only their points.
func (m *Manager) Preview(ctx context.Context, trs []*model.Trajectory, opts PreviewOptions) (image.Image, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("preview: invalid size %dx%d", opts.Width, opts.Height)
	}

	items := make([]Item, 0, len(trs))
	for _, tr := range trs {
		if tr == nil {
			return nil, fmt.Errorf("preview: %w", model.ErrNullArgument)
		}
		var fps []core.FollowPoint
		if tr.Len() >= 2 {
			var err error
			if fps, err = m.FollowPoints(ctx, tr); err != nil {
				return nil, fmt.Errorf("preview %q: %w", tr.Name(), err)
			}
		}
		items = append(items, Item{Trajectory: tr, Points: fps})
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(previewBackground)
	dc.Clear()

	project := fitProjection(items, opts)

	for _, it := range items {
		maxSpeed := it.Trajectory.MaxSpeed()
		for _, fp := range it.Points {
			x, y := project(fp.Position)
			dc.SetColor(speedColor(fp.Speed, maxSpeed))
			dc.DrawCircle(x, y, 2.5)
			dc.Fill()
		}

		for _, cp := range it.Trajectory.ControlPoints() {
			cx, cy := project(cp.Position())
			dc.SetColor(previewHandle)
			dc.SetLineWidth(1)
			for _, h := range []model.Cartesian{cp.AbsStartHelperPos(), cp.AbsEndHelperPos()} {
				hx, hy := project(h)
				dc.DrawLine(cx, cy, hx, hy)
				dc.Stroke()
				dc.DrawCircle(hx, hy, 3)
				dc.Fill()
			}
			dc.SetColor(previewControl)
			dc.DrawCircle(cx, cy, 5)
			dc.Fill()
		}
	}
	return dc.Image(), nil
}

// WritePreview renders a preview and encodes it as PNG.
func (m *Manager) WritePreview(ctx context.Context, w io.Writer, trs []*model.Trajectory, opts PreviewOptions) error {
	img, err := m.Preview(ctx, trs, opts)
	if err != nil {
		return err
	}
	dc := gg.NewContextForImage(img)
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("preview: encode: %w", err)
	}
	return nil
}

// fitProjection maps field coordinates to pixels with y pointing up. With a
// zero Scale the bounding box of all points and handles is fitted inside the
// margins, preserving aspect ratio.
func fitProjection(items []Item, opts PreviewOptions) func(model.Cartesian) (float64, float64) {
	w, h := float64(opts.Width), float64(opts.Height)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(p model.Cartesian) {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	for _, it := range items {
		for _, fp := range it.Points {
			grow(fp.Position)
		}
		for _, cp := range it.Trajectory.ControlPoints() {
			grow(cp.Position())
			grow(cp.AbsStartHelperPos())
			grow(cp.AbsEndHelperPos())
		}
	}
	if math.IsInf(minX, 1) {
		minX, maxX, minY, maxY = 0, 0, 0, 0
	}
	cx, cy := (minX+maxX)/2, (minY+maxY)/2

	scale := opts.Scale
	if scale <= 0 {
		spanX, spanY := maxX-minX, maxY-minY
		availX, availY := w-2*opts.Margin, h-2*opts.Margin
		if availX <= 0 || availY <= 0 {
			availX, availY = w, h
		}
		scale = 1
		if spanX > 0 || spanY > 0 {
			scale = math.Min(availX/math.Max(spanX, 1e-9), availY/math.Max(spanY, 1e-9))
		}
	}

	return func(p model.Cartesian) (float64, float64) {
		return w/2 + (p.X-cx)*scale, h/2 - (p.Y-cy)*scale
	}
}

func speedColor(speed, maxSpeed float64) color.Color {
	f := 0.0
	if maxSpeed > 0 {
		f = math.Max(0, math.Min(1, speed/maxSpeed))
	}
	lerp := func(a, b uint8) uint8 { return uint8(float64(a) + (float64(b)-float64(a))*f) }
	return color.RGBA{
		R: lerp(previewSlow.R, previewFast.R),
		G: lerp(previewSlow.G, previewFast.G),
		B: lerp(previewSlow.B, previewFast.B),
		A: 255,
	}
}
