package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/san-kum/particlelife/internal/dynamo"
	"github.com/san-kum/particlelife/internal/sim"
)

const background = "#0a0a0a"

// FrameSVG draws every particle of f as a circle colored by its type.
// One world unit maps to scale pixels.
func FrameSVG(w io.Writer, f sim.Frame, scale float64) error {
	if scale <= 0 {
		return dynamo.Invalidf("svg scale must be positive, got %v", scale)
	}
	width := f.World.Width * scale
	height := f.World.Height * scale

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
	if !f.World.Wrap {
		fmt.Fprintf(bw, `<rect width="%.1f" height="%.1f" fill="none" stroke="#444466"/>
`, width, height)
	}

	radius := max(f.World.ParticleRadius*scale, 0.5)
	// One group per type so each fill is written once.
	for t, pt := range f.Types {
		fmt.Fprintf(bw, "<g fill=\"%s\">\n", hex(pt.Color))
		for _, p := range f.Particles {
			if p.Type != t {
				continue
			}
			fmt.Fprintf(bw, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, p.Pos.X*scale, p.Pos.Y*scale, radius)
		}
		bw.WriteString("</g>\n")
	}
	fmt.Fprintf(bw, `<text x="8" y="%.0f" fill="#888899" font-family="monospace" font-size="12">t=%.1f steps=%d</text>
`, height-8, f.Time, f.Steps)
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// SeriesSVG plots values as a polyline filling a width x height image.
func SeriesSVG(w io.Writer, values []float64, width, height int, strokeColor string) error {
	if len(values) < 2 {
		return dynamo.Invalidf("need at least 2 values to plot, got %d", len(values))
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * 0.1
	span *= 1.2

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, strokeColor)

	dx := float64(width) / float64(len(values)-1)
	for i, v := range values {
		x := float64(i) * dx
		y := float64(height) - (v-lo)/span*float64(height)
		if i == 0 {
			fmt.Fprintf(bw, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(bw, " L%.1f,%.1f", x, y)
		}
	}
	bw.WriteString("\"/>\n</svg>\n")
	return bw.Flush()
}

func hex(c dynamo.Color) string {
	r, g, b, _ := c.RGBA8()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
