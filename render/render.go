// Package render draws a session as an SVG image.
//
// Training points are 12px dots in their class color. The query point is a
// 16px white dot with a 3px border in the predicted class color, or gray when
// the prediction is absent.
package render

import (
	"bufio"
	"fmt"
	"io"

	"github.com/hupe1980/knnviz/classifier"
	"github.com/hupe1980/knnviz/model"
	"github.com/hupe1980/knnviz/session"
)

// Colors used on the canvas.
const (
	ColorA       = "rgb(239 68 68)"
	ColorB       = "rgb(34 197 94)"
	ColorAbsent  = "gray"
	ColorNeutral = "rgb(107 114 128)"
)

const (
	pointRadius = 6
	queryRadius = 8
	queryBorder = 3
)

// ColorFor returns the fill color of class c, ColorAbsent for ClassNone.
func ColorFor(c model.Class) string {
	switch c {
	case model.ClassA:
		return ColorA
	case model.ClassB:
		return ColorB
	default:
		return ColorAbsent
	}
}

// Options controls rendering.
type Options struct {
	Width  int
	Height int
	// HighlightNeighbors outlines the training points that voted.
	HighlightNeighbors bool
}

// DefaultOptions matches the 600x400 canvas of the page.
var DefaultOptions = Options{
	Width:  600,
	Height: 400,
}

// SVG writes st as an SVG document. res is the prediction for st.Query.
func SVG(w io.Writer, st session.State, res classifier.Result, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = DefaultOptions.Width
	}
	if opts.Height <= 0 {
		opts.Height = DefaultOptions.Height
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		opts.Width, opts.Height, opts.Width, opts.Height)
	fmt.Fprintf(bw, `<rect x="0" y="0" width="%d" height="%d" fill="white" stroke="%s" rx="8"/>`+"\n",
		opts.Width, opts.Height, ColorNeutral)

	voted := make(map[int]bool, len(res.Neighbors))
	if opts.HighlightNeighbors {
		for _, n := range res.Neighbors {
			voted[n.Index] = true
		}
	}

	// Insertion order is drawing order.
	for i, p := range st.Points {
		fmt.Fprintf(bw, `<circle cx="%g" cy="%g" r="%d" fill="%s"`, p.X, p.Y, pointRadius, ColorFor(p.Class))
		if voted[i] {
			fmt.Fprint(bw, ` stroke="black" stroke-width="2"`)
		}
		fmt.Fprint(bw, "/>\n")
	}

	if st.Query != nil {
		// The stroke is centered on the circle edge; shrink r so the outer
		// edge matches the 16px box of the page.
		fmt.Fprintf(bw, `<circle cx="%g" cy="%g" r="%g" fill="white" stroke="%s" stroke-width="%d"/>`+"\n",
			st.Query.X, st.Query.Y, float64(queryRadius)-float64(queryBorder)/2, ColorFor(res.Class), queryBorder)
	}

	fmt.Fprint(bw, "</svg>\n")
	return bw.Flush()
}
