// Command worker imports supplier price catalogs (CSV) into a contractor's
// general price list. Each CSV row is one priced line item:
//
//	name,category,unit,price,capacity
//
// category is one of work, material, installations, others. capacity may be
// empty. Rows with a name already present in the list replace that item's
// price; everything else is appended.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/stavlog/stavlog-backend/config"
	"github.com/stavlog/stavlog-backend/internal/pricelist"
	"github.com/stavlog/stavlog-backend/internal/remote"
)

func main() {
	dir := flag.String("dir", "catalogs", "directory containing supplier CSV files")
	contractorID := flag.String("contractor", "", "contractor whose general price list receives the import")
	workers := flag.Int("workers", 4, "number of CSV parse workers")
	rps := flag.Int("rate", 5, "remote requests per second")
	flag.Parse()

	if *contractorID == "" {
		log.Fatal("-contractor is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	apiKey := cfg.Supabase.ServiceKey
	if apiKey == "" {
		apiKey = cfg.Supabase.AnonKey
	}
	client, err := remote.NewClient(remote.ClientConfig{
		ProjectURL: cfg.Supabase.ProjectURL,
		APIKey:     apiKey,
	})
	if err != nil {
		log.Fatalf("remote client: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.csv"))
	if err != nil {
		log.Fatalf("list catalogs: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no CSV files in %s", *dir)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	limiter := rate.NewLimiter(rate.Limit(*rps), 2**rps)

	log.Printf("Importing %d catalog file(s) into contractor %s", len(files), *contractorID)

	items, err := parseCatalogs(ctx, files, *workers)
	if err != nil {
		log.Fatalf("parse failed: %v", err)
	}
	log.Printf("Parsed %d line item(s)", len(items))

	if err := applyToGeneralList(ctx, client, limiter, *contractorID, items); err != nil {
		log.Fatalf("import failed: %v", err)
	}
	log.Println("All imports finished successfully.")
}

type catalogItem struct {
	category string
	item     pricelist.Item
}

// parseCatalogs fans the files out over a fixed worker pool and collects the
// normalized items. A malformed row is logged and skipped; a file that cannot
// be opened fails the whole import.
func parseCatalogs(ctx context.Context, files []string, workers int) ([]catalogItem, error) {
	jobs := make(chan string)
	results := make(chan catalogItem)
	errs := make(chan error, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if err := parseFile(path, results); err != nil {
					errs <- fmt.Errorf("%s: %w", path, err)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
		close(errs)
	}()

	var items []catalogItem
	for it := range results {
		items = append(items, it)
	}
	if err := <-errs; err != nil {
		return nil, err
	}
	return items, nil
}

func parseFile(path string, out chan<- catalogItem) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	line := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "name") {
			continue // header
		}
		it, category, err := normalizeRow(row)
		if err != nil {
			log.Printf("%s line %d skipped: %v", path, line, err)
			continue
		}
		out <- catalogItem{category: category, item: it}
	}
	return nil
}

var categories = map[string]bool{
	"work":          true,
	"material":      true,
	"installations": true,
	"others":        true,
}

func normalizeRow(row []string) (pricelist.Item, string, error) {
	if len(row) < 4 {
		return pricelist.Item{}, "", fmt.Errorf("expected at least 4 columns, got %d", len(row))
	}
	name := strings.TrimSpace(row[0])
	if name == "" {
		return pricelist.Item{}, "", fmt.Errorf("empty name")
	}
	category := strings.ToLower(strings.TrimSpace(row[1]))
	if !categories[category] {
		return pricelist.Item{}, "", fmt.Errorf("unknown category %q", category)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
	if err != nil {
		return pricelist.Item{}, "", fmt.Errorf("bad price %q", row[3])
	}

	it := pricelist.Item{
		ID:    uuid.NewString(),
		Name:  name,
		Unit:  strings.TrimSpace(row[2]),
		Price: price,
	}
	if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
		cap, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		if err != nil {
			return pricelist.Item{}, "", fmt.Errorf("bad capacity %q", row[4])
		}
		it.Capacity = &cap
	}
	return it, category, nil
}

// applyToGeneralList merges the imported items into the contractor's general
// price list, creating one when the contractor has none yet. Remote calls go
// through the limiter.
func applyToGeneralList(ctx context.Context, client *remote.Client, limiter *rate.Limiter, contractorID string, items []catalogItem) error {
	if err := limiter.Wait(ctx); err != nil {
		return err
	}
	recs, err := client.Select(ctx, pricelist.Table,
		remote.NewQuery().Eq("contractor_id", contractorID).Eq("general", true).WithLimit(1))
	if err != nil {
		return fmt.Errorf("fetch general list: %w", err)
	}

	var list pricelist.PriceList
	creating := len(recs) == 0
	if creating {
		list = pricelist.PriceList{
			ContractorID: contractorID,
			Name:         "General price list",
			General:      true,
		}
	} else {
		list = pricelist.FromRecord(recs[0])
	}

	replaced, added := 0, 0
	for _, ci := range items {
		target := categorySlice(&list, ci.category)
		if i := indexByName(*target, ci.item.Name); i >= 0 {
			ci.item.ID = (*target)[i].ID
			(*target)[i] = ci.item
			replaced++
		} else {
			*target = append(*target, ci.item)
			added++
		}
	}
	log.Printf("Merged: %d replaced, %d added", replaced, added)

	if err := limiter.Wait(ctx); err != nil {
		return err
	}
	if creating {
		if _, err := client.Insert(ctx, pricelist.Table, list.ToRecord()); err != nil {
			return fmt.Errorf("create general list: %w", err)
		}
		return nil
	}
	if _, err := client.Update(ctx, pricelist.Table, list.ID, list.ToRecord()); err != nil {
		return fmt.Errorf("update general list: %w", err)
	}
	return nil
}

func categorySlice(p *pricelist.PriceList, category string) *[]pricelist.Item {
	switch category {
	case "work":
		return &p.Work
	case "material":
		return &p.Material
	case "installations":
		return &p.Installations
	default:
		return &p.Others
	}
}

func indexByName(items []pricelist.Item, name string) int {
	for i, it := range items {
		if strings.EqualFold(it.Name, name) {
			return i
		}
	}
	return -1
}
