package solar

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/philtems/colorwarm/internal/location"
)

const (
	// MaxLatitude is the edge of the supported latitude band. Positions beyond it
	// are clamped; the schedule does not model polar day or night.
	MaxLatitude = 65.0

	// MinDaylight is the shortest daylight span Compute will return
	MinDaylight = 20 * time.Minute

	// referenceDay is the day of month every reference entry is taken on
	referenceDay = 15

	// referenceYear fixes the ephemeris year so tables are reusable across years
	referenceYear = 2021

	minutesPerDegree = 4.0
)

// Events holds one day's sunrise and sunset in local time
type Events struct {
	Date    time.Time // local midnight
	Sunrise time.Time
	Sunset  time.Time
}

// Daylight returns the time between sunrise and sunset
func (e Events) Daylight() time.Duration {
	return e.Sunset.Sub(e.Sunrise)
}

// Noon returns the midpoint of daylight
func (e Events) Noon() time.Time {
	return e.Sunrise.Add(e.Daylight() / 2)
}

// referenceEntry is one reference day in minutes after standard-time midnight
// on the zone meridian
type referenceEntry struct {
	sunrise float64
	sunset  float64
}

type tableKey struct {
	latitude float64
	offset   time.Duration
}

// Calculator computes sunrise and sunset from seasonally interpolated reference
// tables. It is safe for concurrent use.
type Calculator struct {
	source ReferenceSource
	zone   *time.Location

	mu     sync.Mutex
	tables map[tableKey][12]referenceEntry
}

// NewCalculator creates a calculator that expresses events in zone. A nil zone
// means time.Local.
func NewCalculator(source ReferenceSource, zone *time.Location) *Calculator {
	if zone == nil {
		zone = time.Local
	}
	if source == nil {
		source = SuncalcSource{}
	}
	return &Calculator{
		source: source,
		zone:   zone,
		tables: make(map[tableKey][12]referenceEntry),
	}
}

// Zone returns the time zone events are expressed in
func (c *Calculator) Zone() *time.Location {
	return c.zone
}

// Source returns the name of the reference source
func (c *Calculator) Source() string {
	return c.source.Name()
}

// Normalize clamps l into the supported band. The returned error wraps
// location.ErrInvalidLocation when l had to be changed; the returned location is
// always usable.
func Normalize(l location.Location) (location.Location, error) {
	clamped := l.Clamp(MaxLatitude)
	if err := l.Validate(); err != nil {
		return clamped, err
	}
	if clamped != l {
		return clamped, fmt.Errorf("%w: latitude %.2f clamped to %.2f", location.ErrInvalidLocation, l.Latitude, clamped.Latitude)
	}
	return clamped, nil
}

// Compute returns the sunrise and sunset for date's calendar day at l.
// Identical inputs always produce identical events.
func (c *Calculator) Compute(l location.Location, date time.Time) Events {
	l, _ = Normalize(l)

	date = date.In(c.zone)
	year, month, day := date.Date()
	offset := location.StandardOffset(c.zone, year)
	meridian := zoneMeridian(offset)

	table := c.table(l.Latitude, offset, meridian)

	// Bracketing reference days
	var from, to time.Time
	var fromIdx, toIdx int
	if day <= referenceDay {
		to = time.Date(year, month, referenceDay, 0, 0, 0, 0, time.UTC)
		from = to.AddDate(0, -1, 0)
	} else {
		from = time.Date(year, month, referenceDay, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0)
	}
	fromIdx, toIdx = int(from.Month())-1, int(to.Month())-1

	current := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	ratio := current.Sub(from).Hours() / to.Sub(from).Hours()

	a, b := table[fromIdx], table[toIdx]
	// Across the date line (UTC+13, +14) meridian and longitude sit on opposite
	// sides of 180; the shortest signed distance keeps the events on date.
	correction := math.Remainder(meridian-l.Longitude, 360) * minutesPerDegree
	sunrise := lerp(a.sunrise, b.sunrise, ratio) + correction
	sunset := lerp(a.sunset, b.sunset, ratio) + correction

	if minDaylight := MinDaylight.Minutes(); sunset-sunrise < minDaylight {
		mid := (sunrise + sunset) / 2
		sunrise, sunset = mid-minDaylight/2, mid+minDaylight/2
	}

	// Minutes are in standard time; converting through the fixed zone lets the
	// real zone apply daylight saving.
	std := time.FixedZone("STD", int(offset.Seconds()))
	base := time.Date(year, month, day, 0, 0, 0, 0, std)

	return Events{
		Date:    time.Date(year, month, day, 0, 0, 0, 0, c.zone),
		Sunrise: base.Add(minutesToDuration(sunrise)).In(c.zone),
		Sunset:  base.Add(minutesToDuration(sunset)).In(c.zone),
	}
}

// table returns the cached reference table for a latitude and zone offset
func (c *Calculator) table(latitude float64, offset time.Duration, meridian float64) [12]referenceEntry {
	key := tableKey{latitude: latitude, offset: offset}

	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tables[key]; ok {
		return t
	}

	var t [12]referenceEntry
	last := referenceEntry{sunrise: 6 * 60, sunset: 18 * 60}
	for i := range t {
		rise, set, ok := c.source.ReferenceDay(latitude, meridian, offset, time.Month(i+1), referenceDay)
		if !ok || !(rise < set) {
			// No sunrise/sunset on this reference day: reuse the previous entry
			t[i] = last
			continue
		}
		t[i] = referenceEntry{sunrise: rise, sunset: set}
		last = t[i]
	}

	c.tables[key] = t
	return t
}

// zoneMeridian returns the nominal meridian of a standard offset in
// [-180, 180]. UTC+13 lies at -165, not 195.
func zoneMeridian(offset time.Duration) float64 {
	return math.Remainder(offset.Hours()*15, 360)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func minutesToDuration(m float64) time.Duration {
	return time.Duration(math.Round(m*60)) * time.Second
}
