package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Bars renders a single-series bar chart.
func Bars(width, height int, values []float64, labels []string, opts Opts) (template.HTML, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("svg: values required")
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

	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}
	scale := chartHeight / maxVal
	groupWidth := chartWidth / float64(len(values))
	barWidth := groupWidth * 0.6

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img">`, width, height)
	fmt.Fprintf(&b, "<title>%s</title>", template.HTMLEscapeString(fallback(opts.Title, "Bar chart")))

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		y := padding + chartHeight - ratio*chartHeight
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4"></line>`,
			padding, y, padding+chartWidth, y, gridColor)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" font-size="10" fill="%s" text-anchor="end">%s</text>`,
			padding-6, y+3, axisColor, formatTick(maxVal*ratio))
	}

	for i, v := range values {
		x := padding + float64(i)*groupWidth + (groupWidth-barWidth)/2
		h := v * scale
		y := padding + chartHeight - h
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s: %s</title></rect>`,
			x, y, barWidth, h, color, template.HTMLEscapeString(labels[i]), formatTick(v))
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" font-size="10" fill="%s" text-anchor="middle">%s</text>`,
			x+barWidth/2, padding+chartHeight+14, axisColor, template.HTMLEscapeString(labels[i]))
	}

	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1"></line>`,
		padding, padding+chartHeight, padding+chartWidth, padding+chartHeight, axisColor)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func formatTick(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
