package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"censuspop/internal/config"
	"censuspop/internal/geometry"
	"censuspop/internal/presentation"
	"censuspop/internal/service/population"
	"censuspop/internal/service/zone"

	log "github.com/sirupsen/logrus"
)

func main() {
	kmlPath := flag.String("kml", "", "Path to the KML file with the query polygon")
	dataDir := flag.String("data", "data", "Directory holding the city CSV files")
	points := flag.Int("points", 0, "Monte Carlo points per zone (0 selects by zone count)")
	seed := flag.Uint64("seed", 0, "Random seed (0 seeds from the clock)")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()

	log.SetOutput(os.Stderr)
	if !*verbose {
		log.SetLevel(log.WarnLevel)
	}

	if *kmlPath == "" {
		log.Fatal("-kml is required")
	}

	content, err := os.ReadFile(*kmlPath)
	if err != nil {
		log.Fatalf("Failed to read KML: %v", err)
	}
	ring, err := geometry.ParseKML(string(content))
	if err != nil {
		log.Fatalf("Invalid KML: %v", err)
	}

	ctx := context.Background()
	zs := zone.NewZoneService()
	if err := zs.InitService(ctx, zone.CSVSource{DataDir: *dataDir}, config.DefaultCityNames()); err != nil {
		log.Fatalf("Failed to load census data: %v", err)
	}

	var opts []population.Option
	if *seed != 0 {
		opts = append(opts, population.WithSeed(*seed))
	}
	var nPoints *int
	if *points > 0 {
		nPoints = points
	}

	calc, err := population.NewService(zs, opts...).Calculate(ctx, ring, nPoints)
	if err != nil {
		log.Fatalf("Estimation failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{
		"population": calc.Population,
		"statistics": calc.Statistics,
		"geojson":    presentation.QueryFeature(ring, filepath.Base(*kmlPath)),
	}); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
}
