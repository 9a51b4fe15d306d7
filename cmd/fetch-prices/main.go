package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"demand-flex/internal/data"
)

func main() {
	var (
		dataDir   = flag.String("data", data.GetDefaultDataDir(), "Data directory")
		scenario  = flag.String("scenario", "", "Scenario whose bus_params.json is updated")
		busID     = flag.String("bus", "", "Bus to update (default: every bus)")
		priceArea = flag.String("area", "DK1", "Price area (DK1 or DK2)")
		day       = flag.String("date", "", "Delivery day YYYY-MM-DD (default: tomorrow)")
		baseURL   = flag.String("base-url", "", "Price API base URL")
		dryRun    = flag.Bool("dry-run", false, "Print prices without writing")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	if *scenario == "" && !*dryRun {
		logger.Fatal("--scenario is required unless --dry-run is set")
	}

	start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	if *day != "" {
		d, err := time.Parse("2006-01-02", *day)
		if err != nil {
			logger.Fatalf("--date must be in YYYY-MM-DD format: %v", err)
		}
		start = d
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := data.NewPriceClient(*baseURL, logger)
	logger.Infof("Fetching %s day-ahead prices for %s", *priceArea, start.Format("2006-01-02"))
	spot, err := client.DayAhead(ctx, data.PriceQuery{
		PriceArea: *priceArea,
		Start:     start,
		End:       start.AddDate(0, 0, 1),
	})
	if err != nil {
		logger.Fatalf("Failed to fetch prices: %v", err)
	}
	prices := data.PriceSeries(spot)
	logger.Infof("Fetched %d hourly prices", len(prices))

	if *dryRun {
		for _, p := range spot {
			fmt.Printf("%s %.4f\n", p.HourUTC.Format(time.RFC3339), p.PriceDKKPerKWh)
		}
		return
	}

	buses, err := data.LoadBusParams(*dataDir, *scenario)
	if err != nil {
		logger.Fatalf("Failed to load bus params: %v", err)
	}
	if err := data.ReplaceBusPrices(buses, *busID, prices); err != nil {
		logger.Fatalf("Failed to update prices: %v", err)
	}
	if err := data.SaveBusParams(*dataDir, *scenario, buses); err != nil {
		logger.Fatalf("Failed to save bus params: %v", err)
	}
	fmt.Fprintf(os.Stdout, "Saved %d prices to %s/%s/%s\n", len(prices), *dataDir, *scenario, data.BusParamsFile)
}
