package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/hupe1980/kmeanslab"
)

func (s *Server) chart(c *gin.Context) {
	scatter := newScatter(s.cfg.Session.State())

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := scatter.Render(c.Writer); err != nil {
		s.cfg.Logger.ErrorContext(c.Request.Context(), "render chart", "error", err)
	}
}

// newScatter plots one series per cluster, or the raw dataset when there are
// no clusters yet, plus the centroids.
func newScatter(st kmeanslab.State) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "kmeanslab",
			Width:     "900px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "K-Means Clustering",
			Subtitle: fmt.Sprintf("k=%d, mode=%s, iterations=%d", st.K, st.Mode, st.Iterations),
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Scale: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	if len(st.Clusters) == 0 {
		scatter.AddSeries("Data Points", scatterData(st.Points, 6, ""))
	} else {
		for i, cl := range st.Clusters {
			scatter.AddSeries(fmt.Sprintf("Cluster %d", i+1), scatterData(cl.Points, 6, ""))
		}
	}
	if len(st.Centroids) > 0 {
		scatter.AddSeries("Centroids", scatterData(st.Centroids, 18, "diamond"))
	}

	scatter.SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))
	return scatter
}

func scatterData(points []kmeanslab.Point, size int, symbol string) []opts.ScatterData {
	out := make([]opts.ScatterData, len(points))
	for i, p := range points {
		out[i] = opts.ScatterData{
			Value:      []any{p.X(), p.Y()},
			Symbol:     symbol,
			SymbolSize: size,
		}
	}
	return out
}
