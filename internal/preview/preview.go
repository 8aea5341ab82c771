// Package preview renders top-down overviews of an imported reconstruction:
// a PNG via gonum/plot and an interactive HTML scatter via go-echarts.
//
// The ground plane is X/Z: COLMAP cameras look down +Z with +Y pointing
// down, so a top-down view drops Y.
package preview

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Point is one colored point of the cloud. Color channels are in [0, 1].
type Point struct {
	Position [3]float64
	Color    [3]float64
}

// Camera is a camera centre in world coordinates.
type Camera struct {
	ID       uint32
	Position [3]float64
}

// Frame is everything drawn in one preview.
type Frame struct {
	Title   string
	Points  []Point
	Cameras []Camera
	// MaxPoints caps the number of drawn points; 0 draws all of them.
	MaxPoints int
}

// Stride returns the sampling step that keeps n items within max.
func Stride(n, max int) int {
	if max <= 0 || n <= max {
		return 1
	}
	return int(math.Ceil(float64(n) / float64(max)))
}

func (f Frame) sampled() []Point {
	stride := Stride(len(f.Points), f.MaxPoints)
	if stride == 1 {
		return f.Points
	}
	out := make([]Point, 0, len(f.Points)/stride+1)
	for i := 0; i < len(f.Points); i += stride {
		out = append(out, f.Points[i])
	}
	return out
}

func toRGBA(c [3]float64) color.RGBA {
	ch := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return color.RGBA{R: ch(c[0]), G: ch(c[1]), B: ch(c[2]), A: 255}
}

// meanColorHex returns the average point color as #rrggbb. The HTML chart
// colors a series, not individual points.
func meanColorHex(pts []Point) string {
	if len(pts) == 0 {
		return "#9ca3af"
	}
	var sum [3]float64
	for _, pt := range pts {
		for i := range sum {
			sum[i] += pt.Color[i]
		}
	}
	n := float64(len(pts))
	c := toRGBA([3]float64{sum[0] / n, sum[1] / n, sum[2] / n})
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// WritePNG saves a top-down scatter of f to path.
func WritePNG(path string, f Frame) error {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Z"
	p.Add(plotter.NewGrid())

	pts := f.sampled()
	if len(pts) > 0 {
		xys := make(plotter.XYs, len(pts))
		for i, pt := range pts {
			xys[i] = plotter.XY{X: pt.Position[0], Y: pt.Position[2]}
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("failed to create point scatter: %w", err)
		}
		s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{
				Color:  toRGBA(pts[i].Color),
				Radius: vg.Points(1),
				Shape:  draw.CircleGlyph{},
			}
		}
		p.Add(s)
		p.Legend.Add("points", s)
	}

	if len(f.Cameras) > 0 {
		xys := make(plotter.XYs, len(f.Cameras))
		for i, c := range f.Cameras {
			xys[i] = plotter.XY{X: c.Position[0], Y: c.Position[2]}
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("failed to create camera scatter: %w", err)
		}
		s.GlyphStyle = draw.GlyphStyle{
			Color:  color.RGBA{R: 220, G: 40, B: 40, A: 255},
			Radius: vg.Points(4),
			Shape:  draw.TriangleGlyph{},
		}
		p.Add(s)
		p.Legend.Add("cameras", s)
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save preview %s: %w", path, err)
	}
	return nil
}

// WriteHTML renders an interactive top-down scatter of f to w.
func WriteHTML(w io.Writer, f Frame) error {
	pts := f.sampled()
	pointData := make([]opts.ScatterData, 0, len(pts))
	for _, pt := range pts {
		pointData = append(pointData, opts.ScatterData{
			Value: []interface{}{pt.Position[0], pt.Position[2]},
		})
	}

	cameraData := make([]opts.ScatterData, 0, len(f.Cameras))
	for _, c := range f.Cameras {
		cameraData = append(cameraData, opts.ScatterData{
			Name:  fmt.Sprintf("camera %d", c.ID),
			Value: []interface{}{c.Position[0], c.Position[2]},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: f.Title, Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: f.Title, Subtitle: fmt.Sprintf("points=%d/%d cameras=%d", len(pts), len(f.Points), len(f.Cameras))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Z", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("points", pointData,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: meanColorHex(pts)}),
	)
	scatter.AddSeries("cameras", cameraData,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#dc2828"}),
	)

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteAll writes <name>.png and <name>.html into dir and returns their paths.
func WriteAll(dir, name string, f Frame) (pngPath, htmlPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create preview dir: %w", err)
	}

	pngPath = filepath.Join(dir, name+".png")
	if err := WritePNG(pngPath, f); err != nil {
		return "", "", err
	}

	htmlPath = filepath.Join(dir, name+".html")
	out, err := os.Create(htmlPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create %s: %w", htmlPath, err)
	}
	defer out.Close()
	if err := WriteHTML(out, f); err != nil {
		return "", "", err
	}
	return pngPath, htmlPath, out.Close()
}
