// Package svg renders small server-side charts for report pages. Output is
// a self-contained <svg> element safe to inline into templates.
package svg

// Default chart geometry.
const (
	DefaultWidth   = 720
	DefaultHeight  = 280
	DefaultPadding = 36.0
	DefaultTicks   = 4
)

// Opts tunes a chart. Zero values fall back to sensible defaults.
type Opts struct {
	Title       string
	Description string
	Color       string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
