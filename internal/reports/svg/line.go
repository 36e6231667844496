package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Line renders a single-series line chart.
func Line(width, height int, values []float64, labels []string, opts Opts) (template.HTML, error) {
	if len(values) < 2 {
		return "", fmt.Errorf("svg: at least two points required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("svg: values length must match labels")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	color := fallback(opts.Color, "#B8865B")
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#d7d7d7")

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if minVal > 0 {
		minVal = 0
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}
	scale := chartHeight / (maxVal - minVal)
	step := chartWidth / float64(len(values)-1)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img">`, width, height)
	fmt.Fprintf(&b, "<title>%s</title>", template.HTMLEscapeString(fallback(opts.Title, "Line chart")))

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		y := padding + chartHeight - ratio*chartHeight
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4"></line>`,
			padding, y, padding+chartWidth, y, gridColor)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" font-size="10" fill="%s" text-anchor="end">%s</text>`,
			padding-6, y+3, axisColor, formatTick(minVal+(maxVal-minVal)*ratio))
	}

	points := make([]string, len(values))
	for i, v := range values {
		x := padding + float64(i)*step
		y := padding + chartHeight - (v-minVal)*scale
		points[i] = fmt.Sprintf("%.2f,%.2f", x, y)
	}
	fmt.Fprintf(&b, `<polyline fill="none" stroke="%s" stroke-width="2" points="%s"></polyline>`, color, strings.Join(points, " "))

	labelEvery := 1
	if len(labels) > 12 {
		labelEvery = len(labels) / 12
	}
	for i, label := range labels {
		if i%labelEvery != 0 {
			continue
		}
		x := padding + float64(i)*step
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" font-size="10" fill="%s" text-anchor="middle">%s</text>`,
			x, padding+chartHeight+14, axisColor, template.HTMLEscapeString(label))
	}

	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1"></line>`,
		padding, padding+chartHeight, padding+chartWidth, padding+chartHeight, axisColor)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
