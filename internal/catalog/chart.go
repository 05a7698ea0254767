package catalog

import (
	"sort"
	"time"

	"scrappify-bff/internal/models"
)

// BuildChart turns the per-source history into time-axis datasets. Points
// are ordered chronologically within each series; points whose date cannot
// be parsed are left out since they have no position on the axis.
func BuildChart(vm models.ProductViewModel) models.Chart {
	chart := models.Chart{
		YAxisLabel: "Price (" + vm.Currency + ")",
		Datasets:   make([]models.ChartDataset, 0, len(vm.PriceHistoryBySource)),
	}

	for _, series := range vm.PriceHistoryBySource {
		type dated struct {
			at    time.Time
			value float64
		}
		points := make([]dated, 0, len(series.Data))
		for _, pt := range series.Data {
			if at, ok := parseDate(pt.Date); ok {
				points = append(points, dated{at: at, value: pt.Value})
			}
		}
		sort.SliceStable(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })

		data := make([]models.ChartPoint, len(points))
		for i, p := range points {
			data[i] = models.ChartPoint{X: p.at.UTC().Format(time.RFC3339), Y: p.value}
		}
		chart.Datasets = append(chart.Datasets, models.ChartDataset{
			Label:  series.Source + " (" + vm.Currency + ")",
			Source: series.Source,
			Data:   data,
		})
	}

	return chart
}
