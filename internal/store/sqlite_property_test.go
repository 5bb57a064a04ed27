package store_test

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"crisis-replay/internal/store"
	"crisis-replay/internal/store/storetest"
)

// Property: NAV rows come back ordered by date regardless of insert order.
//
// For any set of distinct dates inserted in random order, FundNAV returns one
// row per date in ascending date order.
func TestProperty_NAVOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("FundNAV is ascending and complete", prop.ForAll(
		func(offsets []int, seed int64) bool {
			ctx := context.Background()
			base := time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC)

			unique := make(map[string]bool)
			var dates []string
			for _, off := range offsets {
				d := base.AddDate(0, 0, off).Format("2006-01-02")
				if !unique[d] {
					unique[d] = true
					dates = append(dates, d)
				}
			}
			rand.New(rand.NewSource(seed)).Shuffle(len(dates), func(i, j int) {
				dates[i], dates[j] = dates[j], dates[i]
			})

			fixture := storetest.New(t).Fund("000001", "华夏新经济")
			for i, d := range dates {
				fixture.NAV("000001", d, 1.0+float64(i)/100, 1.0, fmt.Sprintf("%.2f%%", float64(i)/10))
			}
			path := fixture.Close()

			s, err := store.OpenSQLiteStore(ctx, path)
			if err != nil {
				t.Logf("open: %v", err)
				return false
			}
			defer s.Close()

			rows, err := s.FundNAV(ctx, "000001")
			if err != nil || len(rows) != len(dates) {
				t.Logf("rows=%d dates=%d err=%v", len(rows), len(dates), err)
				return false
			}
			return sort.SliceIsSorted(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
		},
		gen.SliceOf(gen.IntRange(0, 365)),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
