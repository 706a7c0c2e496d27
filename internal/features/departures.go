package features

import (
	"fmt"
	"sort"
	"time"

	"bikeshare.trentomobility.org/gtfsdb"
	"bikeshare.trentomobility.org/internal/models"
)

// ServiceDayHours is the hour domain of a GTFS service day: 0..23 plus 24..47
// for overnight trips attributed to the prior day.
const ServiceDayHours = 48

// Partition is everything the aggregator needs from one GTFS feed: its
// expanded calendars, its scheduled departures, and the proximity relation
// mapping each stop to the stations it is attributed to.
type Partition struct {
	Name         string
	Calendars    []ServiceCalendar
	Exceptions   []ServiceException
	Departures   []gtfsdb.Departure
	StopStations map[string][]int
}

// The persisted hourly schema has one departure column per feed partition.
const (
	PartitionUrban      = "urb"
	PartitionExtraUrban = "ext"
)

// BuildStationHours expands each partition's calendars over the global
// feature window and counts scheduled departures per (station, date, hour).
// Hours are departure seconds / 3600; overnight values 24..47 are kept as-is
// and anything outside 0..47 is dropped as malformed rather than coerced.
func BuildStationHours(partitions []Partition) ([]models.StationHourRow, error) {
	if len(partitions) == 0 {
		return nil, fmt.Errorf("no GTFS partitions given")
	}
	windows := make([][2]time.Time, 0, len(partitions))
	for _, p := range partitions {
		if p.Name != PartitionUrban && p.Name != PartitionExtraUrban {
			return nil, fmt.Errorf("unknown partition %q: the hourly schema has columns for %q and %q only",
				p.Name, PartitionUrban, PartitionExtraUrban)
		}
		start, end, err := FeedWindow(p.Calendars)
		if err != nil {
			return nil, fmt.Errorf("partition %s: %w", p.Name, err)
		}
		windows = append(windows, [2]time.Time{start, end})
	}

	start, end, err := GlobalWindow(windows)
	if err != nil {
		return nil, err
	}
	if err := checkHourConventions(partitions); err != nil {
		return nil, err
	}

	type cell struct {
		urb int64
		ext int64
	}
	type key struct {
		station int
		date    string
		hour    int
	}
	counts := make(map[key]*cell)

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		dateStr := date.Format(models.DateLayout)
		for _, p := range partitions {
			active := ActiveServices(date, p.Calendars, p.Exceptions)
			if len(active) == 0 {
				continue
			}
			for _, dep := range p.Departures {
				if !active[dep.ServiceID] {
					continue
				}
				hour := dep.DepartureSecs / 3600
				if hour < 0 {
					continue // malformed departure time, dropped
				}
				for _, stationID := range p.StopStations[dep.StopID] {
					k := key{station: stationID, date: dateStr, hour: hour}
					c := counts[k]
					if c == nil {
						c = &cell{}
						counts[k] = c
					}
					if p.Name == PartitionUrban {
						c.urb++
					} else {
						c.ext++
					}
				}
			}
		}
	}

	rows := make([]models.StationHourRow, 0, len(counts))
	for k, c := range counts {
		rows = append(rows, models.StationHourRow{
			StationID: int64(k.station),
			Date:      k.date,
			Hour:      int32(k.hour),
			DepUrb:    c.urb,
			DepExt:    c.ext,
			DepTotal:  c.urb + c.ext,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.StationID != b.StationID {
			return a.StationID < b.StationID
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Hour < b.Hour
	})
	return rows, nil
}

// checkHourConventions verifies that every partition's departure hours lie in
// the shared 0..47 service-day domain. Partitions disagreeing on the
// overnight convention would otherwise mix silently in the summed totals.
func checkHourConventions(partitions []Partition) error {
	for _, p := range partitions {
		for _, dep := range p.Departures {
			hour := dep.DepartureSecs / 3600
			if hour >= ServiceDayHours {
				return fmt.Errorf(
					"partition %s: departure at stop %s has hour %d outside the 0..%d service-day domain; partitions disagree on the overnight convention",
					p.Name, dep.StopID, hour, ServiceDayHours-1)
			}
		}
	}
	return nil
}

// StopStationMap builds the stop-to-stations attribution relation for one
// partition from the matcher's proximity queries.
func StopStationMap(m *Matcher, stations []models.Station, feedID string, radius int) map[string][]int {
	out := make(map[string][]int)
	for _, st := range stations {
		for _, stop := range m.StopsWithin(st, radius) {
			if stop.FeedID != feedID {
				continue
			}
			out[stop.ID] = append(out[stop.ID], st.ID)
		}
	}
	return out
}
