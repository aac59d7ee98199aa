package chart

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"crypto-alert-service/internal/types"
	"crypto-alert-service/lib/helpers"
)

// RenderHistory draws the sampled price history of one instrument as a PNG
// for trigger notifications. At least two points are required.
func RenderHistory(title string, points []types.PricePoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, errors.New("not enough price samples to chart")
	}

	series := chart.TimeSeries{
		XValues: make([]time.Time, 0, len(points)),
		YValues: make([]float64, 0, len(points)),
		Style: chart.Style{
			StrokeColor: drawing.Color{R: 0, G: 122, B: 255, A: 255},
			FillColor:   drawing.Color{R: 0, G: 122, B: 255, A: 25},
		},
	}
	for _, p := range points {
		series.XValues = append(series.XValues, p.RecordedAt)
		series.YValues = append(series.YValues, p.Price)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1200,
		Height: 400,
		Background: chart.Style{
			FillColor: drawing.Color{R: 55, G: 55, B: 55, A: 255},
		},
		Canvas: chart.Style{
			FillColor: drawing.Color{R: 55, G: 55, B: 55, A: 255},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("15:04"),
			Style:          chart.Style{FontColor: drawing.Color{R: 200, G: 200, B: 200, A: 255}},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return helpers.FormatPriceUS(f, false)
				}
				return ""
			},
			Style: chart.Style{FontColor: drawing.Color{R: 200, G: 200, B: 200, A: 255}},
		},
		Series: []chart.Series{series},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, errors.Wrap(err, "failed to render price chart")
	}
	return buf.Bytes(), nil
}
