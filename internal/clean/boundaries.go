package clean

import (
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/parquet-go/parquet-go"

	"bikeshare.trentomobility.org/internal/pipeline"
)

// Boundary is one municipality row from the onData administrative-boundary
// export, reduced to the columns the study uses.
type Boundary struct {
	Code      string  `parquet:"pro_com"`
	Name      string  `parquet:"comune"`
	Region    string  `parquet:"den_reg"`
	Province  string  `parquet:"den_prov"`
	UTS       string  `parquet:"den_uts"`
	Sigla     string  `parquet:"sigla"`
	ShapeLen  float64 `parquet:"shape_leng"`
	ShapeArea float64 `parquet:"shape_area"`
}

// CleanBoundaries keeps the known columns of the onData municipalities CSV.
// Columns absent from a given export are left at their zero value.
func CleanBoundaries(src string) ([]Boundary, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("error opening boundaries file %s: %w", src, err)
	}
	defer f.Close() // nolint:errcheck

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true), dataframe.DefaultType(series.String))
	if df.Err != nil {
		return nil, fmt.Errorf("error reading boundaries file %s: %w", src, df.Err)
	}

	records := df.Records()
	if len(records) < 2 {
		return nil, &pipeline.EmptyResultError{Source: src, Hint: "boundary export has no data rows"}
	}
	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[name] = i
	}
	if _, ok := idx["comune"]; !ok {
		return nil, &pipeline.SchemaError{Source: src, Missing: []string{"comune"}, Found: records[0]}
	}

	get := func(rec []string, col string) string {
		if i, ok := idx[col]; ok {
			return rec[i]
		}
		return ""
	}

	boundaries := make([]Boundary, 0, len(records)-1)
	for _, rec := range records[1:] {
		boundaries = append(boundaries, Boundary{
			Code:      get(rec, "pro_com"),
			Name:      get(rec, "comune"),
			Region:    get(rec, "den_reg"),
			Province:  get(rec, "den_prov"),
			UTS:       get(rec, "den_uts"),
			Sigla:     get(rec, "sigla"),
			ShapeLen:  parseFloat(get(rec, "shape_leng")),
			ShapeArea: parseFloat(get(rec, "shape_area")),
		})
	}
	return boundaries, nil
}

// WriteBoundariesTable persists boundary rows as the interim table.
func WriteBoundariesTable(path string, boundaries []Boundary) error {
	if err := parquet.WriteFile(path, boundaries); err != nil {
		return fmt.Errorf("error writing boundaries table %s: %w", path, err)
	}
	return nil
}
