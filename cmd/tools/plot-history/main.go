// Command plot-history renders the stored reading history as an HTML
// line chart (temperature and humidity per channel) using go-echarts.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/rfsense/tfa433/internal/db"
	"github.com/rfsense/tfa433/internal/tfa"
	"github.com/rfsense/tfa433/internal/units"
)

func main() {
	dbFile := flag.String("db", "readings.db", "readings database")
	output := flag.String("o", "history.html", "output HTML path")
	window := flag.Duration("window", 24*time.Hour, "history window")
	unitsFlag := flag.String("units", "c", "temperature units (c, f, k)")
	flag.Parse()

	if !units.IsValid(*unitsFlag) {
		log.Fatalf("invalid units %q, valid values: %s", *unitsFlag, units.GetValidUnitsString())
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	since := time.Now().Add(-*window)

	tempChart := charts.NewLine()
	tempChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Reading History", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Temperature (%s)", *unitsFlag),
			Subtitle: fmt.Sprintf("since %s", since.Format(time.RFC3339)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	humChart := charts.NewLine()
	humChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Relative humidity (%)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	total := 0
	for chn := 1; chn <= tfa.NumChannels; chn++ {
		history, err := database.ChannelHistory(chn, since)
		if err != nil {
			log.Fatalf("failed to query channel %d: %v", chn, err)
		}
		if len(history) == 0 {
			continue
		}
		total += len(history)

		temps := make([]opts.LineData, 0, len(history))
		hums := make([]opts.LineData, 0, len(history))
		for _, r := range history {
			at := r.ReceivedAt.Format(time.RFC3339)
			temps = append(temps, opts.LineData{Value: []interface{}{at, units.ConvertTemperature(r.TempC, *unitsFlag)}})
			hums = append(hums, opts.LineData{Value: []interface{}{at, r.Humidity}})
		}
		name := fmt.Sprintf("channel %d", chn)
		tempChart.AddSeries(name, temps, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		humChart.AddSeries(name, hums, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	}

	if total == 0 {
		log.Fatalf("no readings within the last %s", *window)
	}

	page := components.NewPage()
	page.AddCharts(tempChart, humChart)

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *output, err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("failed to render chart: %v", err)
	}
	log.Printf("✓ Created: %s (%d readings)", *output, total)
}
