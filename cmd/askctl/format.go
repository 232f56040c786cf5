package main

import (
	"fmt"
	"time"

	"github.com/warp/seva-insights/engine"
)

func printDemand(demand []engine.RegionDemand) {
	fmt.Printf("%-32s %14s\n", "REGION", "DEMAND")
	for _, d := range demand {
		fmt.Printf("%-32s %14d\n", d.Region, d.Demand)
	}
}

func printOverview(a *engine.Analysis, risk int) {
	fmt.Printf("=== %s ===\n", a.Region)
	fmt.Printf("  Total updates:     %d\n", a.Totals.TotalActivity)
	fmt.Printf("  New enrolments:    %d\n", a.Totals.Enrolments)
	fmt.Printf("  MBU requirement:   %d\n", a.Totals.MBURequirement)
	fmt.Printf("  Active districts:  %d\n", a.Totals.ActiveDistricts)
	fmt.Printf("  Risk districts:    %d\n", risk)
}

func printPriority(ranked []engine.DistrictSummary) {
	fmt.Println("MOBILE VAN PRIORITY:")
	if len(ranked) == 0 {
		fmt.Println("  (no districts)")
		return
	}
	fmt.Printf("  %-4s %-28s %10s %8s %12s\n", "#", "DISTRICT", "GAP", "GAP %", "SCORE")
	for i, s := range ranked {
		fmt.Printf("  %-4d %-28s %10d %8s %12s\n",
			i+1, s.District, s.GapScore, s.GapPercentage.StringFixed(1), s.PriorityScore.StringFixed(2))
	}
}

func printForecast(day time.Weekday, loads []engine.DistrictLoad) {
	gauge := engine.GaugeLoad(loads)
	fmt.Printf("FORECAST FOR %s (gauge %s, %s):\n", day, gauge.StringFixed(1), engine.Stress(gauge))
	if len(loads) == 0 {
		fmt.Println("  (no history for this weekday)")
		return
	}
	for _, l := range loads {
		fmt.Printf("  %-28s %12s\n", l.District, l.Load.StringFixed(1))
	}
}
