package location

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidLocation is returned when coordinates fall outside the
// representable range. Callers recover by clamping.
var ErrInvalidLocation = errors.New("invalid location")

// DefaultZone is used when the system timezone cannot be detected
const DefaultZone = "Europe/Brussels"

// Location is an approximate geographic position
type Location struct {
	Latitude  float64
	Longitude float64
}

// String formats the location as "48.85N 2.35E"
func (l Location) String() string {
	ns, ew := "N", "E"
	lat, lon := l.Latitude, l.Longitude
	if lat < 0 {
		ns, lat = "S", -lat
	}
	if lon < 0 {
		ew, lon = "W", -lon
	}
	return fmt.Sprintf("%.2f%s %.2f%s", lat, ns, lon, ew)
}

// Validate reports whether the coordinates are within range
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) {
		return fmt.Errorf("%w: NaN coordinate", ErrInvalidLocation)
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %.4f out of [-90, 90]", ErrInvalidLocation, l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %.4f out of [-180, 180]", ErrInvalidLocation, l.Longitude)
	}
	return nil
}

// Clamp returns the location with latitude clamped to [-maxLat, maxLat] and
// longitude wrapped to [-180, 180). NaN coordinates become 0.
func (l Location) Clamp(maxLat float64) Location {
	lat, lon := l.Latitude, l.Longitude
	if math.IsNaN(lat) {
		lat = 0
	}
	if math.IsNaN(lon) {
		lon = 0
	}
	lat = math.Max(-maxLat, math.Min(maxLat, lat))
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return Location{Latitude: lat, Longitude: lon - 180}
}

// Entry is one row of a location source
type Entry struct {
	Name     string
	Location Location
}

// Source maps a timezone identifier to a reference point
type Source interface {
	Lookup(zone string) (Entry, bool)
}

// Resolution is the outcome of resolving a timezone identifier
type Resolution struct {
	Zone     string
	Name     string
	Location Location
	// Exact is false when a regional or UTC offset fallback was used
	Exact bool
	// Fallback describes the fallback level: "", "region" or "offset"
	Fallback string
}

// Resolver resolves timezone identifiers to approximate locations
type Resolver struct {
	source  Source
	regions map[string]Entry
}

// NewResolver creates a resolver over the given source. A nil source uses the
// built-in table.
func NewResolver(source Source) *Resolver {
	if source == nil {
		source = DefaultTable()
	}
	return &Resolver{
		source:  source,
		regions: regionFallbacks,
	}
}

// Resolve never fails: an unknown zone falls back to its region's reference
// point, then to a point on the zone's UTC offset meridian.
func (r *Resolver) Resolve(zone string) Resolution {
	zone = strings.TrimSpace(zone)

	if entry, ok := r.source.Lookup(zone); ok {
		return Resolution{
			Zone:     zone,
			Name:     entry.Name,
			Location: entry.Location,
			Exact:    true,
		}
	}

	if i := strings.Index(zone, "/"); i > 0 {
		if entry, ok := r.regions[zone[:i]]; ok {
			return Resolution{
				Zone:     zone,
				Name:     entry.Name,
				Location: entry.Location,
				Fallback: "region",
			}
		}
	}

	offset := zoneOffset(zone, time.Now())
	return Resolution{
		Zone:     zone,
		Name:     fmt.Sprintf("UTC%+.1f meridian", offset.Hours()),
		Location: Location{Latitude: 45, Longitude: offset.Hours() * 15},
		Fallback: "offset",
	}
}

// zoneOffset returns the standard (non-DST) UTC offset of a zone, or 0 when the
// zone cannot be loaded.
func zoneOffset(zone string, at time.Time) time.Duration {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return 0
	}
	return StandardOffset(loc, at.Year())
}

// StandardOffset returns the smaller of the January and July UTC offsets of loc,
// which is the standard time offset on both hemispheres.
func StandardOffset(loc *time.Location, year int) time.Duration {
	_, jan := time.Date(year, time.January, 1, 12, 0, 0, 0, loc).Zone()
	_, jul := time.Date(year, time.July, 1, 12, 0, 0, 0, loc).Zone()
	if jul < jan {
		jan = jul
	}
	return time.Duration(jan) * time.Second
}

// DetectZone guesses the system timezone: $TZ, /etc/timezone, then the
// /etc/localtime symlink target. It returns DefaultZone when nothing matches.
func DetectZone() string {
	return detectZone(os.Getenv("TZ"), "/etc/timezone", "/etc/localtime")
}

func detectZone(tzEnv, timezoneFile, localtimeLink string) string {
	if tz := strings.TrimPrefix(strings.TrimSpace(tzEnv), ":"); tz != "" && !filepath.IsAbs(tz) {
		return tz
	}

	if content, err := os.ReadFile(timezoneFile); err == nil {
		if tz := strings.TrimSpace(string(content)); tz != "" {
			return tz
		}
	}

	if target, err := os.Readlink(localtimeLink); err == nil {
		if i := strings.Index(target, "zoneinfo/"); i >= 0 {
			return target[i+len("zoneinfo/"):]
		}
	}

	return DefaultZone
}
