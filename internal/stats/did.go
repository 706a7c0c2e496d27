package stats

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bikeshare.trentomobility.org/internal/models"
)

// DIDOptions parameterizes the difference-in-differences fit.
type DIDOptions struct {
	EventDate   time.Time
	WindowDays  int
	TreatNeedle string // zone substring marking treated stations, defaulted to "cent"
}

// DIDData is the estimation sample built from the daily model matrix.
type DIDData struct {
	Design   *Design
	Treated  []bool
	Post     []bool
	NTreated int
	NControl int
}

// DefaultTreatNeedle marks city-centre zones as treated.
const DefaultTreatNeedle = "cent"

// BuildDIDData assembles the difference-in-differences sample: daily trips
// within WindowDays of the event date, treated = zone containing the needle
// (case-insensitive). The design is
//
//	trips ~ did + post + temp_max + precip + mob_work + mob_transit + C(dow) + C(station)
//
// with the treatment main effect absorbed by the station fixed effects.
func BuildDIDData(rows []models.ModelMatrixDayRow, opts DIDOptions) (*DIDData, error) {
	if opts.WindowDays <= 0 {
		return nil, fmt.Errorf("DID window must be positive, got %d", opts.WindowDays)
	}
	needle := strings.ToLower(opts.TreatNeedle)
	if needle == "" {
		needle = DefaultTreatNeedle
	}

	lo := opts.EventDate.AddDate(0, 0, -opts.WindowDays)
	hi := opts.EventDate.AddDate(0, 0, opts.WindowDays)

	var (
		y, did, post, tmax, precip, work, transit []float64
		dow, stations, clusters                   []string
		treated, postFlags                        []bool
	)
	treatedStations := make(map[int64]bool)
	for _, r := range rows {
		date, err := time.Parse(models.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("error parsing date %q: %w", r.Date, err)
		}
		if date.Before(lo) || date.After(hi) {
			continue
		}
		isTreated := strings.Contains(strings.ToLower(r.Zone), needle)
		isPost := !date.Before(opts.EventDate)

		y = append(y, float64(r.Trips))
		did = append(did, boolToFloat(isTreated && isPost))
		post = append(post, boolToFloat(isPost))
		tmax = append(tmax, r.TempMax)
		precip = append(precip, r.PrecipMM)
		work = append(work, r.MobWork)
		transit = append(transit, r.MobTran)
		dow = append(dow, strconv.Itoa(int(r.Dow)))
		station := strconv.FormatInt(r.StationID, 10)
		stations = append(stations, station)
		clusters = append(clusters, station)
		treated = append(treated, isTreated)
		postFlags = append(postFlags, isPost)
		treatedStations[r.StationID] = isTreated
	}
	if len(y) == 0 {
		return nil, fmt.Errorf("no observations within %d days of %s",
			opts.WindowDays, opts.EventDate.Format(models.DateLayout))
	}

	var nTreated, nControl int
	for _, t := range treatedStations {
		if t {
			nTreated++
		} else {
			nControl++
		}
	}
	if nTreated == 0 || nControl == 0 {
		return nil, fmt.Errorf("DID needs both treated and control stations, got %d treated and %d control",
			nTreated, nControl)
	}

	d, err := NewDesignBuilder(len(y)).
		AddColumn("did", did).
		AddColumn("post", post).
		AddColumn("temp_max", tmax).
		AddColumn("precip_mm", precip).
		AddColumn("mob_work", work).
		AddColumn("mob_transit", transit).
		AddDummies("dow", dow).
		AddDummies("station", stations).
		Build(y, clusters)
	if err != nil {
		return nil, fmt.Errorf("error building DID design: %w", err)
	}

	return &DIDData{
		Design:   d,
		Treated:  treated,
		Post:     postFlags,
		NTreated: nTreated,
		NControl: nControl,
	}, nil
}

// FitDID estimates the difference-in-differences model. The coefficient of
// interest is "did".
func FitDID(rows []models.ModelMatrixDayRow, opts DIDOptions) (*OLSResult, *DIDData, error) {
	data, err := BuildDIDData(rows, opts)
	if err != nil {
		return nil, nil, err
	}
	res, err := FitOLS(data.Design)
	if err != nil {
		return nil, nil, fmt.Errorf("error fitting DID model: %w", err)
	}
	return res, data, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
