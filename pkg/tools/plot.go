package tools

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mentor/pkg/utils"
)

// PlotTool renders y=f(x) as an SVG file on disk.
type PlotTool struct {
	dir string
}

// NewPlotTool creates a plotter writing into dir.
func NewPlotTool(dir string) *PlotTool {
	if dir == "" {
		dir = "plots"
	}
	return &PlotTool{dir: dir}
}

func (t *PlotTool) Name() string {
	return "plot"
}

func (t *PlotTool) Describe() string {
	return "/plot y=<expr> [x:min:max[:step]] — plot a function, e.g. /plot y=sin(x) x:-3.14:3.14"
}

const (
	plotWidth  = 640
	plotHeight = 400
	plotMargin = 40
)

func (t *PlotTool) Run(args string) (string, error) {
	expr, xMin, xMax, step, err := parsePlotArgs(args)
	if err != nil {
		return "", NewError(KindInvalidArguments, t.Name(), err)
	}

	points, err := samplePoints(expr, xMin, xMax, step)
	if err != nil {
		return "", NewError(KindComputationFailed, t.Name(), err)
	}
	if len(points) < 2 {
		return "", NewError(KindComputationFailed, t.Name(),
			fmt.Errorf("function has no finite values on [%g, %g]", xMin, xMax))
	}

	if err := os.MkdirAll(t.dir, 0755); err != nil {
		return "", NewError(KindComputationFailed, t.Name(), err)
	}

	path := filepath.Join(t.dir, utils.GenerateShortID()+".svg")
	svg := renderSVG(expr, points)
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return "", NewError(KindComputationFailed, t.Name(), err)
	}

	return fmt.Sprintf("📈 Plot of y=%s on [%s, %s] saved to %s",
		expr, FormatNumber(xMin), FormatNumber(xMax), path), nil
}

// parsePlotArgs understands "y=sin(x) x:-3.14:3.14:0.01"; range defaults
// to [-10, 10] with 200 samples.
func parsePlotArgs(args string) (expr string, xMin, xMax, step float64, err error) {
	xMin, xMax = -10, 10

	fields := strings.Fields(strings.TrimSpace(args))
	if len(fields) == 0 {
		return "", 0, 0, 0, fmt.Errorf("expected 'y=<expr> [x:min:max[:step]]'")
	}

	for _, f := range fields {
		lower := strings.ToLower(f)
		switch {
		case strings.HasPrefix(lower, "y="):
			expr = f[2:]
		case strings.HasPrefix(lower, "x:"):
			parts := strings.Split(f[2:], ":")
			if len(parts) < 2 || len(parts) > 3 {
				return "", 0, 0, 0, fmt.Errorf("invalid range %q", f)
			}
			xMin, err = strconv.ParseFloat(parts[0], 64)
			if err != nil {
				return "", 0, 0, 0, fmt.Errorf("invalid range %q", f)
			}
			xMax, err = strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return "", 0, 0, 0, fmt.Errorf("invalid range %q", f)
			}
			if len(parts) == 3 {
				step, err = strconv.ParseFloat(parts[2], 64)
				if err != nil || step <= 0 {
					return "", 0, 0, 0, fmt.Errorf("invalid step %q", parts[2])
				}
			}
		default:
			if expr == "" {
				expr = f
			} else {
				expr += f
			}
		}
	}

	if expr == "" {
		return "", 0, 0, 0, fmt.Errorf("missing expression")
	}
	if xMax <= xMin {
		return "", 0, 0, 0, fmt.Errorf("empty range [%g, %g]", xMin, xMax)
	}
	if step == 0 {
		step = (xMax - xMin) / 200
	}
	return expr, xMin, xMax, step, nil
}

type plotPoint struct {
	x, y float64
}

func samplePoints(expr string, xMin, xMax, step float64) ([]plotPoint, error) {
	vars := map[string]float64{"x": 0}
	var points []plotPoint

	// validate the expression once before sampling
	vars["x"] = xMin
	if _, err := Eval(expr, vars); err != nil {
		return nil, err
	}

	for x := xMin; x <= xMax+step/2; x += step {
		vars["x"] = x
		y, err := Eval(expr, vars)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		points = append(points, plotPoint{x: x, y: y})
	}
	return points, nil
}

func renderSVG(expr string, points []plotPoint) string {
	yMin, yMax := points[0].y, points[0].y
	for _, p := range points {
		yMin = math.Min(yMin, p.y)
		yMax = math.Max(yMax, p.y)
	}
	if yMax == yMin {
		yMax = yMin + 1
	}
	xMin, xMax := points[0].x, points[len(points)-1].x

	scaleX := func(x float64) float64 {
		return plotMargin + (x-xMin)/(xMax-xMin)*(plotWidth-2*plotMargin)
	}
	scaleY := func(y float64) float64 {
		return plotHeight - plotMargin - (y-yMin)/(yMax-yMin)*(plotHeight-2*plotMargin)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		plotWidth, plotHeight, plotWidth, plotHeight)
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>`)

	// axes, drawn only when zero is inside the range
	if yMin <= 0 && yMax >= 0 {
		fmt.Fprintf(&b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="#999" stroke-width="1"/>`,
			scaleX(xMin), scaleY(0), scaleX(xMax), scaleY(0))
	}
	if xMin <= 0 && xMax >= 0 {
		fmt.Fprintf(&b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="#999" stroke-width="1"/>`,
			scaleX(0), scaleY(yMin), scaleX(0), scaleY(yMax))
	}

	b.WriteString(`<polyline fill="none" stroke="#1a73e8" stroke-width="2" points="`)
	for i, p := range points {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.2f,%.2f", scaleX(p.x), scaleY(p.y))
	}
	b.WriteString(`"/>`)

	fmt.Fprintf(&b, `<text x="%d" y="20" font-family="monospace" font-size="14">y=%s</text>`,
		plotMargin, xmlEscape(expr))
	b.WriteString(`</svg>`)
	return b.String()
}

func xmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
