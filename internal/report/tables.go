package report

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"

	"bikeshare.trentomobility.org/internal/models"
)

// IntermodalityRanking writes the top and bottom n stations by the 300 m
// intermodality index as a single CSV with a rank_group column.
func IntermodalityRanking(path string, index []models.AccessibilityRow, n int) error {
	if len(index) == 0 {
		return fmt.Errorf("no accessibility rows to rank")
	}
	if n <= 0 {
		return fmt.Errorf("ranking size must be positive, got %d", n)
	}

	records := [][]string{{
		"station_id", "name", "stops_300m", "routes_300m", "idx_intermodal_300m", "dist_to_stop_m",
	}}
	for _, r := range index {
		records = append(records, []string{
			strconv.FormatInt(r.StationID, 10),
			r.Name,
			strconv.FormatInt(r.Stops300m, 10),
			strconv.FormatInt(r.Routes300m, 10),
			strconv.FormatFloat(r.Idx300m, 'f', 2, 64),
			strconv.FormatFloat(r.DistToStopM, 'f', 1, 64),
		})
	}
	df := dataframe.LoadRecords(records, dataframe.DetectTypes(true))
	if df.Err != nil {
		return fmt.Errorf("error loading ranking dataframe: %w", df.Err)
	}
	sorted := df.Arrange(dataframe.RevSort("idx_intermodal_300m"))
	if sorted.Err != nil {
		return fmt.Errorf("error sorting ranking dataframe: %w", sorted.Err)
	}

	if n > sorted.Nrow() {
		n = sorted.Nrow()
	}
	top := make([]int, 0, n)
	bottom := make([]int, 0, n)
	for i := 0; i < n; i++ {
		top = append(top, i)
		bottom = append(bottom, sorted.Nrow()-n+i)
	}

	group := func(rows []int, label string) ([][]string, error) {
		sub := sorted.Subset(rows)
		if sub.Err != nil {
			return nil, fmt.Errorf("error slicing ranking dataframe: %w", sub.Err)
		}
		recs := sub.Records()
		out := make([][]string, 0, len(recs)-1)
		for _, rec := range recs[1:] {
			out = append(out, append(rec, label))
		}
		return out, nil
	}

	topRecs, err := group(top, "top")
	if err != nil {
		return err
	}
	bottomRecs, err := group(bottom, "bottom")
	if err != nil {
		return err
	}

	out := [][]string{append(sorted.Names(), "rank_group")}
	out = append(out, topRecs...)
	out = append(out, bottomRecs...)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer f.Close() // nolint:errcheck

	final := dataframe.LoadRecords(out, dataframe.DetectTypes(false))
	if final.Err != nil {
		return fmt.Errorf("error building ranking output: %w", final.Err)
	}
	if err := final.WriteCSV(f); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return nil
}
