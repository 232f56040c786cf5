package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/seva-insights/config"
	"github.com/warp/seva-insights/engine"
	"github.com/warp/seva-insights/report"
	"github.com/warp/seva-insights/store/sqlite"
)

func runImport(ctx context.Context, dbPath string, files []string) error {
	store, err := sqlite.Create(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("opening %s: %w", name, err)
		}
		res, err := store.ImportCSV(ctx, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("importing %s: %w", name, err)
		}
		fmt.Printf("%s: %d rows across %d regions\n", name, res.Rows, res.Regions)
	}
	return nil
}

// openStore opens the fact store read-only and resolves region against it.
func openStore(ctx context.Context, cfg config.Config, region string) (*sqlite.Store, string, error) {
	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, "", err
	}
	if region != "" {
		return store, region, nil
	}

	regions, err := store.ListRegions(ctx)
	if err != nil {
		store.Close()
		return nil, "", err
	}
	region, err = engine.SelectRegion(regions, cfg.Dashboard.PreferredRegion)
	if err != nil {
		store.Close()
		return nil, "", err
	}
	return store, region, nil
}

func runRegions(ctx context.Context, cfg config.Config) error {
	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	demand, err := store.DemandByRegion(ctx)
	if err != nil {
		return err
	}
	printDemand(demand)
	return nil
}

func runSummary(ctx context.Context, cfg config.Config, region, dayName string) error {
	store, region, err := openStore(ctx, cfg, region)
	if err != nil {
		return err
	}
	defer store.Close()

	a, err := engine.LoadAnalysis(ctx, store, region)
	if err != nil {
		return err
	}

	now := time.Now()
	day := now.Weekday()
	if dayName != "" {
		if day, err = engine.ParseWeekday(dayName); err != nil {
			return err
		}
	}

	ranked, err := engine.RankPriority(a.Districts, cfg.Dashboard.PriorityTopN)
	if err != nil {
		return err
	}
	loads, err := engine.TopForWeekday(a.Demand, day, cfg.Dashboard.ForecastTopN)
	if err != nil {
		return err
	}

	threshold := decimal.NewFromFloat(cfg.Dashboard.RiskThresholdPct)
	printOverview(a, a.RiskDistricts(threshold))
	fmt.Println()
	printPriority(ranked)
	fmt.Println()
	printForecast(day, loads)
	return nil
}

func runReport(ctx context.Context, cfg config.Config, region, outDir string, xlsx bool) error {
	store, region, err := openStore(ctx, cfg, region)
	if err != nil {
		return err
	}
	defer store.Close()

	a, err := engine.LoadAnalysis(ctx, store, region)
	if err != nil {
		return err
	}

	threshold := decimal.NewFromFloat(cfg.Dashboard.RiskThresholdPct)
	pdf, err := report.RenderSummary(report.Summary{
		Region:          a.Region,
		TotalUpdates:    report.Int(a.Totals.TotalActivity),
		TotalEnrolments: report.Int(a.Totals.Enrolments),
		RiskDistricts:   report.Int(int64(a.RiskDistricts(threshold))),
		GeneratedAt:     time.Now(),
	})
	if err != nil {
		return err
	}

	reportID := uuid.NewString()
	path := filepath.Join(outDir, report.Filename(cfg.Dashboard.ReportPrefix, a.Region))
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	log.Printf("report %s written to %s", reportID, path)

	if !xlsx {
		return nil
	}
	var buf bytes.Buffer
	if err := report.WriteRecordsXLSX(&buf, engine.SortNewestFirst(a.Records)); err != nil {
		return err
	}
	xlsxPath := strings.TrimSuffix(path, ".pdf") + "_records.xlsx"
	if err := os.WriteFile(xlsxPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}
	log.Printf("records for report %s written to %s", reportID, xlsxPath)
	return nil
}
