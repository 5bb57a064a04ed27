package timeline

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"crisis-replay/internal/models"
)

// daySet turns generated day numbers into a strictly ascending series.
func daySet(code string, class models.InstrumentClass, days []int) *models.InstrumentSeries {
	present := make(map[int]bool)
	for _, d := range days {
		present[d] = true
	}
	var unique []int
	for d := 1; d <= 60; d++ {
		if present[d] {
			unique = append(unique, d)
		}
	}
	return series(code, class, unique...)
}

func genDays() gopter.Gen {
	return gen.SliceOf(gen.IntRange(1, 60))
}

// Property: every trading day is complete, floored and strictly ascending.
//
// For any fund, index and news layout, each Timeline day has a record for
// every active fund, no day precedes the floor, dates strictly ascend, and
// no complete date at or after the floor is missing.
func TestProperty_TimelineInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("completeness, floor and ordering", prop.ForAll(
		func(a, b, c, idx, news []int, floorDay int, useFloor bool) bool {
			in := Input{
				Funds: funds(
					daySet("A", models.ClassFund, a),
					daySet("B", models.ClassFund, b),
					daySet("C", models.ClassFund, c),
				),
				Indices: funds(daySet("sh_index", models.ClassIndex, idx)),
			}
			for _, n := range news {
				in.News = append(in.News, models.NewsItem{Date: day(n), Content: "n"})
			}
			if useFloor {
				f := day(floorDay)
				in.Floor = &f
			}

			tl := Build(in)

			var active []*models.InstrumentSeries
			for _, s := range in.Funds {
				if !s.Empty() {
					active = append(active, s)
				}
			}

			for i, d := range tl.Days {
				if i > 0 && !tl.Days[i-1].Date.Before(d.Date) {
					return false
				}
				if in.Floor != nil && d.Date.Before(*in.Floor) {
					return false
				}
				for _, s := range active {
					if !s.Has(d.Date) {
						return false
					}
					if _, ok := d.Instruments[s.Key]; !ok {
						return false
					}
				}
			}

			// Nothing complete is dropped.
			if len(active) == 0 {
				return tl.Empty()
			}
			expected := 0
			for _, r := range active[0].Records {
				if in.Floor != nil && r.Date.Before(*in.Floor) {
					continue
				}
				complete := true
				for _, s := range active[1:] {
					if !s.Has(r.Date) {
						complete = false
						break
					}
				}
				if complete {
					expected++
				}
			}
			return expected == tl.Len()
		},
		genDays(), genDays(), genDays(), genDays(), genDays(),
		gen.IntRange(-5, 65),
		gen.Bool(),
	))

	properties.Property("news attaches to matching days only", prop.ForAll(
		func(a, news []int) bool {
			in := Input{Funds: funds(daySet("A", models.ClassFund, a))}
			counts := make(map[models.Date]int)
			for _, n := range news {
				in.News = append(in.News, models.NewsItem{Date: day(n), Content: "n"})
				counts[day(n)]++
			}

			for _, d := range Build(in).Days {
				if len(d.News) != counts[d.Date] {
					return false
				}
			}
			return true
		},
		genDays(), genDays(),
	))

	properties.TestingRun(t)
}
