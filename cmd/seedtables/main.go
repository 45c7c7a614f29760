// Command seedtables writes the table-layout seed file the terminal loads at
// startup.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/kiwari-pos/dinein-terminal/internal/enum"
	"github.com/kiwari-pos/dinein-terminal/internal/tables"
)

func main() {
	// CLI flags
	out := flag.String("out", "", "Output file path")
	count := flag.Int("count", 0, "Number of tables")
	capacity := flag.Int("capacity", 0, "Seats per table")
	flag.Parse()

	// Fall back to environment variables
	if *out == "" {
		*out = os.Getenv("TABLES_FILE")
	}
	if *count == 0 {
		if v, err := strconv.Atoi(os.Getenv("SEED_TABLE_COUNT")); err == nil {
			*count = v
		}
	}
	if *capacity == 0 {
		if v, err := strconv.Atoi(os.Getenv("SEED_TABLE_CAPACITY")); err == nil {
			*capacity = v
		}
	}

	// Fall back to defaults
	if *out == "" {
		*out = "tables.json"
	}
	if *count == 0 {
		*count = 12
	}
	if *capacity == 0 {
		*capacity = 4
	}

	seeds := make([]tables.Seed, *count)
	for i := range seeds {
		seeds[i] = tables.Seed{
			ID:       fmt.Sprintf("table-%02d", i+1),
			Number:   i + 1,
			Capacity: *capacity,
			Status:   enum.TableStatusAvailable,
		}
	}

	data, err := json.MarshalIndent(seeds, "", "  ")
	if err != nil {
		log.Fatalf("encode seeds: %v", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}

	log.Printf("Wrote %d tables to %s", *count, *out)
}
