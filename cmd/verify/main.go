package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"moneywave/internal/app/bootstrap"
)

// Standalone invariant check: cross-sums one allocation hour along both
// aggregation paths and exits non-zero when they disagree.
func main() {
	hourFlag := flag.String("hour", "", "allocation hour to verify, RFC3339 (defaults to the previous full hour)")
	domainFlag := flag.String("domain", "predictions", "allocation domain to verify")
	flag.Parse()

	hourStart := time.Now().UTC().Add(-time.Hour).Truncate(time.Hour)
	if *hourFlag != "" {
		parsed, err := time.Parse(time.RFC3339, *hourFlag)
		if err != nil {
			log.Fatalf("parse -hour %q: %v", *hourFlag, err)
		}
		hourStart = parsed
	}

	app, err := bootstrap.BuildVerifier()
	if err != nil {
		log.Fatalf("bootstrap verifier failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("verifier shutdown close failed: %v", err)
		}
	}()

	report, err := app.Module().Service.Verify(context.Background(), hourStart, *domainFlag)
	if err != nil {
		log.Fatalf("verify %s %s failed: %v", hourStart.Format(time.RFC3339), *domainFlag, err)
	}

	fmt.Printf("allocation audit %s domain=%s\n", report.HourStart.Format(time.RFC3339), report.Domain)
	for _, check := range report.Checks {
		marker := "ok"
		if !check.Match {
			marker = "MISMATCH"
		}
		fmt.Printf("  %-24s expected=%s actual=%s delta=%s %s\n",
			check.Category, check.Expected, check.Actual, check.Delta, marker)
	}
	fmt.Printf("totals expected=%s actual=%s\n", report.ExpectedTotal, report.ActualTotal)

	if !report.Passed {
		fmt.Println("result: FAILED")
		os.Exit(1)
	}
	fmt.Println("result: passed")
}
