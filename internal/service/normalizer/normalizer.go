package normalizer

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/quartzhr/attendance-sync-go/internal/domain/punch"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/etimetrack"
)

const (
	punchTimeLayout      = "02/01/2006 15:04:05"
	punchTimeLayoutShort = "02/01/2006 15:04"
	pairedDateLayout     = "02/01/2006"
)

// Normalizer turns raw vendor rows into clean punch events: timestamps
// converted from the terminal wall clock to UTC, directions resolved, and
// minute-level duplicates dropped. One malformed row never fails the batch;
// it is reported and skipped.
type Normalizer struct {
	loc    *time.Location
	logger *slog.Logger
}

func New(loc *time.Location, logger *slog.Logger) *Normalizer {
	return &Normalizer{loc: loc, logger: logger}
}

// Normalize processes a mixed batch of punch-by-punch and paired rows and
// returns the deduplicated events sorted by timestamp, plus one error per
// row that could not be parsed.
func (n *Normalizer) Normalize(punches []etimetrack.PunchRecord, paired []etimetrack.PairedRecord) ([]punch.Event, []error) {
	var events []punch.Event
	var errs []error

	for _, rec := range paired {
		pairedEvents, err := n.normalizePaired(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, pairedEvents...)
	}

	punchEvents, punchErrs := n.normalizePunches(punches)
	events = append(events, punchEvents...)
	errs = append(errs, punchErrs...)

	events = dedupe(events)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	if len(errs) > 0 && n.logger != nil {
		n.logger.Warn("Normalization skipped malformed rows", "skipped", len(errs), "kept", len(events))
	}

	return events, errs
}

func (n *Normalizer) normalizePaired(rec etimetrack.PairedRecord) ([]punch.Event, error) {
	if strings.TrimSpace(rec.INTime) == "" && strings.TrimSpace(rec.OUTTime) == "" {
		return nil, nil
	}

	var events []punch.Event

	var inAt time.Time
	if strings.TrimSpace(rec.INTime) != "" {
		t, err := time.ParseInLocation(pairedDateLayout+" 15:04", rec.DateString+" "+rec.INTime, n.loc)
		if err != nil {
			return nil, fmt.Errorf("paired row for code %s: bad in time %q: %w", rec.Empcode, rec.INTime, err)
		}
		inAt = t
		events = append(events, punch.Event{
			ExternalCode: rec.Empcode,
			ExternalName: rec.Name,
			Timestamp:    t.UTC(),
			Direction:    punch.DirectionIn,
			Source:       punch.SourceBiometric,
		})
	}

	if strings.TrimSpace(rec.OUTTime) != "" {
		t, err := time.ParseInLocation(pairedDateLayout+" 15:04", rec.DateString+" "+rec.OUTTime, n.loc)
		if err != nil {
			return nil, fmt.Errorf("paired row for code %s: bad out time %q: %w", rec.Empcode, rec.OUTTime, err)
		}
		// An out time earlier than the in time means the shift crossed
		// midnight; the vendor repeats the start date on both columns.
		if !inAt.IsZero() && t.Before(inAt) {
			t = t.AddDate(0, 0, 1)
		}
		events = append(events, punch.Event{
			ExternalCode: rec.Empcode,
			ExternalName: rec.Name,
			Timestamp:    t.UTC(),
			Direction:    punch.DirectionOut,
			Source:       punch.SourceBiometric,
		})
	}

	return events, nil
}

func (n *Normalizer) normalizePunches(punches []etimetrack.PunchRecord) ([]punch.Event, []error) {
	var events []punch.Event
	var errs []error

	for _, rec := range punches {
		t, err := n.parsePunchTime(rec.PunchTime)
		if err != nil {
			errs = append(errs, fmt.Errorf("punch row for code %s: %w", rec.Empcode, err))
			continue
		}
		events = append(events, punch.Event{
			ExternalCode: rec.Empcode,
			ExternalName: rec.Name,
			Timestamp:    t.UTC(),
			Direction:    direction(rec.INOUT),
			Source:       punch.SourceBiometric,
		})
	}

	// Dedupe before inference so a double-read in the same minute cannot
	// be alternated into a phantom in/out pair.
	events = dedupe(events)
	inferDirections(events, n.loc)

	return events, errs
}

func (n *Normalizer) parsePunchTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.ParseInLocation(punchTimeLayout, raw, n.loc)
	if err == nil {
		return t, nil
	}
	t, err = time.ParseInLocation(punchTimeLayoutShort, raw, n.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad punch time %q: %w", raw, err)
	}
	return t, nil
}

func direction(inout string) punch.Direction {
	switch strings.ToUpper(strings.TrimSpace(inout)) {
	case "IN":
		return punch.DirectionIn
	case "OUT":
		return punch.DirectionOut
	default:
		return punch.DirectionUnknown
	}
}

// inferDirections assigns directions to punches the terminal reported
// without an IN/OUT flag. Per employee code per day, punches alternate
// starting with in; an explicit flag resets the expectation. A trailing
// unflagged punch that alternation would call an in is re-read as the
// day's checkout when it is not the only punch of the day.
func inferDirections(events []punch.Event, loc *time.Location) {
	type dayKey struct {
		code string
		day  time.Time
	}

	groups := make(map[dayKey][]int)
	for i, ev := range events {
		k := dayKey{code: ev.ExternalCode, day: ev.Day(loc)}
		groups[k] = append(groups[k], i)
	}

	for _, idxs := range groups {
		sort.SliceStable(idxs, func(a, b int) bool {
			return events[idxs[a]].Timestamp.Before(events[idxs[b]].Timestamp)
		})

		expected := punch.DirectionIn
		lastInferred := -1
		for _, i := range idxs {
			if events[i].Direction != punch.DirectionUnknown {
				expected = opposite(events[i].Direction)
				continue
			}
			events[i].Direction = expected
			lastInferred = i
			expected = opposite(expected)
		}

		if lastInferred >= 0 && len(idxs) > 1 &&
			idxs[len(idxs)-1] == lastInferred &&
			events[lastInferred].Direction == punch.DirectionIn {
			events[lastInferred].Direction = punch.DirectionOut
		}
	}
}

func opposite(d punch.Direction) punch.Direction {
	switch d {
	case punch.DirectionIn, punch.DirectionBreakEnd:
		return punch.DirectionOut
	default:
		return punch.DirectionIn
	}
}

// dedupe drops events that repeat the same code, direction and minute.
// Terminals double-register when a finger rests on the scanner; the first
// read wins.
func dedupe(events []punch.Event) []punch.Event {
	type key struct {
		code      string
		minute    time.Time
		direction punch.Direction
		source    punch.Source
	}

	seen := make(map[key]struct{}, len(events))
	out := events[:0]
	for _, ev := range events {
		k := key{
			code:      ev.ExternalCode,
			minute:    ev.Timestamp.Truncate(time.Minute),
			direction: ev.Direction,
			source:    ev.Source,
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, ev)
	}
	return out
}
