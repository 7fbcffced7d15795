// Command packtest packs a set of rectangles and reports the layout.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"light-table/internal/packing"
)

func main() {
	sizes := flag.String("sizes", "", "Comma-separated WxH pairs, e.g. 800x600,1024x768,640x480")
	random := flag.Int("random", 0, "Pack N randomly sized rectangles instead of -sizes")
	seed := flag.Int64("seed", 1, "Random seed for -random")
	gap := flag.Float64("gap", packing.DefaultGap, "Minimum spacing between rectangles")
	flag.Parse()

	items, err := buildItems(*sizes, *random, *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad input: %v\n", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Println("Usage: packtest -sizes 800x600,1024x768 [-gap 40]")
		fmt.Println("       packtest -random 20 [-seed 1] [-gap 40]")
		os.Exit(1)
	}

	packer := packing.Packer{Gap: *gap}
	layout := packer.Pack(items).Normalize()

	fmt.Printf("Packed %d rectangles (gap %.0f):\n\n", len(items), *gap)
	fmt.Printf("%-8s %10s %10s %10s %10s\n", "ID", "X", "Y", "W", "H")

	ids := sortedIDs(layout)
	for _, id := range ids {
		r := layout.Rects[id]
		fmt.Printf("%-8s %10.1f %10.1f %10.1f %10.1f\n", id, r.X, r.Y, r.Width, r.Height)
	}

	size := layout.Size()
	used := 0.0
	for _, it := range items {
		used += it.Width * it.Height
	}
	fmt.Printf("\nCluster: %.0f x %.0f, fill %.0f%%\n",
		size.Width, size.Height, 100*used/(size.Width*size.Height))

	if n := countViolations(layout, *gap); n > 0 {
		fmt.Fprintf(os.Stderr, "FAIL: %d pair(s) closer than the gap\n", n)
		os.Exit(1)
	}
	fmt.Println("OK: no two rectangles closer than the gap")
}

// buildItems turns the command line into packable items. -random wins
// over -sizes when both are given.
func buildItems(sizes string, random int, seed int64) ([]packing.Item, error) {
	if random > 0 {
		rng := rand.New(rand.NewSource(seed))
		items := make([]packing.Item, random)
		for i := range items {
			items[i] = packing.Item{
				ID:     fmt.Sprintf("r%02d", i),
				Width:  float64(200 + rng.Intn(1400)),
				Height: float64(200 + rng.Intn(1000)),
			}
		}
		return items, nil
	}

	if sizes == "" {
		return nil, nil
	}
	var items []packing.Item
	for i, pair := range strings.Split(sizes, ",") {
		w, h, ok := strings.Cut(strings.TrimSpace(pair), "x")
		if !ok {
			return nil, fmt.Errorf("%q is not WxH", pair)
		}
		width, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", pair, err)
		}
		height, err := strconv.ParseFloat(h, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", pair, err)
		}
		items = append(items, packing.Item{ID: fmt.Sprintf("r%02d", i), Width: width, Height: height})
	}
	return items, nil
}

func sortedIDs(layout packing.Layout) []string {
	ids := make([]string, 0, len(layout.Rects))
	for id := range layout.Rects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// countViolations checks every pair with the same grown-rectangle test
// the packer itself uses, so exact gap-distance touching passes.
func countViolations(layout packing.Layout, gap float64) int {
	ids := sortedIDs(layout)
	violations := 0
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a := layout.Rects[ids[i]].Expand(gap / 2)
			b := layout.Rects[ids[j]].Expand(gap / 2)
			if a.Intersects(b) {
				violations++
			}
		}
	}
	return violations
}
