package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philtems/colorwarm/internal/location"

	_ "time/tzdata"
)

var paris = location.Location{Latitude: 48.85, Longitude: 2.35}

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func clock(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

func assertClockBetween(t *testing.T, got time.Time, lo, hi time.Duration) {
	t.Helper()
	c := clock(got)
	if c < lo || c > hi {
		t.Errorf("expected %s between %s and %s", got.Format("15:04:05 MST"), lo, hi)
	}
}

func TestCompute_ParisWinterSolstice(t *testing.T) {
	zone := mustZone(t, "Europe/Paris")
	calc := NewCalculator(SuncalcSource{}, zone)

	ev := calc.Compute(paris, time.Date(2024, time.December, 21, 12, 0, 0, 0, zone))

	assertClockBetween(t, ev.Sunrise, 8*time.Hour+25*time.Minute, 8*time.Hour+55*time.Minute)
	assertClockBetween(t, ev.Sunset, 16*time.Hour+40*time.Minute, 17*time.Hour+10*time.Minute)
	assert.Equal(t, 21, ev.Sunrise.Day())
	assert.True(t, ev.Sunrise.Before(ev.Sunset))
}

func TestCompute_DaylightSaving(t *testing.T) {
	zone := mustZone(t, "Europe/Paris")
	calc := NewCalculator(SuncalcSource{}, zone)

	ev := calc.Compute(paris, time.Date(2024, time.June, 21, 0, 0, 0, 0, zone))

	name, _ := ev.Sunrise.Zone()
	assert.Equal(t, "CEST", name)
	assertClockBetween(t, ev.Sunrise, 5*time.Hour+30*time.Minute, 6*time.Hour+5*time.Minute)
	assertClockBetween(t, ev.Sunset, 21*time.Hour+40*time.Minute, 22*time.Hour+15*time.Minute)
}

func TestCompute_SouthernHemisphere(t *testing.T) {
	zone := mustZone(t, "Australia/Sydney")
	calc := NewCalculator(SuncalcSource{}, zone)
	sydney := location.Location{Latitude: -33.87, Longitude: 151.21}

	summer := calc.Compute(sydney, time.Date(2024, time.December, 21, 0, 0, 0, 0, zone))
	winter := calc.Compute(sydney, time.Date(2024, time.June, 21, 0, 0, 0, 0, zone))

	assert.Greater(t, summer.Daylight(), winter.Daylight())
	assertClockBetween(t, summer.Sunrise, 5*time.Hour+20*time.Minute, 6*time.Hour+5*time.Minute)
}

func TestCompute_Deterministic(t *testing.T) {
	zone := mustZone(t, "Europe/Paris")
	date := time.Date(2024, time.March, 3, 0, 0, 0, 0, zone)

	a := NewCalculator(SuncalcSource{}, zone).Compute(paris, date)
	calc := NewCalculator(SuncalcSource{}, zone)
	b := calc.Compute(paris, date)
	c := calc.Compute(paris, date.Add(15*time.Hour))

	assert.True(t, a.Sunrise.Equal(b.Sunrise))
	assert.True(t, a.Sunset.Equal(b.Sunset))
	assert.True(t, b.Sunrise.Equal(c.Sunrise), "time of day must not affect the result")
}

func TestCompute_SmoothAcrossReferenceDays(t *testing.T) {
	zone := mustZone(t, "Europe/Paris")
	calc := NewCalculator(SuncalcSource{}, zone)

	prev := calc.Compute(paris, time.Date(2024, time.January, 1, 0, 0, 0, 0, zone))
	for d := 1; d < 366; d++ {
		date := time.Date(2024, time.January, 1+d, 0, 0, 0, 0, zone)
		ev := calc.Compute(paris, date)

		delta := clock(ev.Sunrise) - clock(prev.Sunrise)
		if ev.Sunrise.IsDST() != prev.Sunrise.IsDST() {
			prev = ev
			continue
		}
		if delta > 5*time.Minute || delta < -5*time.Minute {
			t.Errorf("sunrise jumped %s between %s and %s", delta, prev.Date.Format("Jan 2"), ev.Date.Format("Jan 2"))
		}
		prev = ev
	}
}

func TestCompute_AllSources(t *testing.T) {
	zone := mustZone(t, "Europe/Paris")
	date := time.Date(2024, time.December, 21, 0, 0, 0, 0, zone)

	for _, name := range []string{"suncalc", "sunrise", "table"} {
		t.Run(name, func(t *testing.T) {
			src, err := NewSource(name)
			require.NoError(t, err)
			assert.Equal(t, name, src.Name())

			ev := NewCalculator(src, zone).Compute(paris, date)

			assert.True(t, ev.Sunrise.Before(ev.Sunset))
			assert.Greater(t, ev.Daylight(), 7*time.Hour)
			assert.Less(t, ev.Daylight(), 9*time.Hour)
			assertClockBetween(t, ev.Sunrise, 8*time.Hour+15*time.Minute, 9*time.Hour)
		})
	}
}

func TestCompute_DateLine(t *testing.T) {
	tests := []struct {
		zone           string
		loc            location.Location
		riseLo, riseHi time.Duration
		setLo, setHi   time.Duration
	}{
		{"Pacific/Apia", location.Location{Latitude: -13.83, Longitude: -171.76},
			6*time.Hour + 15*time.Minute, 7*time.Hour + 20*time.Minute,
			17*time.Hour + 35*time.Minute, 18*time.Hour + 40*time.Minute},
		{"Pacific/Tongatapu", location.Location{Latitude: -21.14, Longitude: -175.2},
			6*time.Hour + 40*time.Minute, 7*time.Hour + 50*time.Minute,
			17*time.Hour + 30*time.Minute, 18*time.Hour + 40*time.Minute},
		{"Pacific/Kiritimati", location.Location{Latitude: 1.87, Longitude: -157.4},
			5*time.Hour + 50*time.Minute, 7*time.Hour + 10*time.Minute,
			17*time.Hour + 50*time.Minute, 19*time.Hour + 10*time.Minute},
	}

	for _, tt := range tests {
		for _, name := range []string{"suncalc", "sunrise"} {
			t.Run(tt.zone+"/"+name, func(t *testing.T) {
				zone := mustZone(t, tt.zone)
				src, err := NewSource(name)
				require.NoError(t, err)

				ev := NewCalculator(src, zone).Compute(tt.loc, time.Date(2025, time.June, 21, 12, 0, 0, 0, zone))

				assert.Equal(t, 21, ev.Sunrise.Day())
				assert.Equal(t, 21, ev.Sunset.Day())
				assertClockBetween(t, ev.Sunrise, tt.riseLo, tt.riseHi)
				assertClockBetween(t, ev.Sunset, tt.setLo, tt.setHi)
			})
		}
	}
}

func TestCompute_DateLineOffsetFallback(t *testing.T) {
	// UTC+14 with the observer on the zone meridian, as the offset fallback
	// resolves it (210 wrapped to -150)
	zone := mustZone(t, "Etc/GMT-14")
	loc := location.Location{Latitude: 45, Longitude: 210}.Clamp(MaxLatitude)

	for _, name := range []string{"suncalc", "sunrise", "table"} {
		t.Run(name, func(t *testing.T) {
			src, err := NewSource(name)
			require.NoError(t, err)

			ev := NewCalculator(src, zone).Compute(loc, time.Date(2025, time.March, 20, 12, 0, 0, 0, zone))

			assert.Equal(t, 20, ev.Sunrise.Day())
			assert.Equal(t, 20, ev.Sunset.Day())
			assert.True(t, ev.Sunrise.Before(ev.Sunset))
		})
	}

	ev := NewCalculator(SuncalcSource{}, zone).Compute(loc, time.Date(2025, time.March, 20, 12, 0, 0, 0, zone))
	assertClockBetween(t, ev.Noon(), 11*time.Hour+40*time.Minute, 12*time.Hour+20*time.Minute)
}

func TestNewSource_Unknown(t *testing.T) {
	_, err := NewSource("astrolabe")
	assert.Error(t, err)

	src, err := NewSource("")
	require.NoError(t, err)
	assert.Equal(t, "suncalc", src.Name())
}

func TestNormalize(t *testing.T) {
	l, err := Normalize(paris)
	assert.NoError(t, err)
	assert.Equal(t, paris, l)

	l, err = Normalize(location.Location{Latitude: 78.2, Longitude: 15.6})
	assert.ErrorIs(t, err, location.ErrInvalidLocation)
	assert.Equal(t, MaxLatitude, l.Latitude)

	l, err = Normalize(location.Location{Latitude: -95, Longitude: 0})
	assert.ErrorIs(t, err, location.ErrInvalidLocation)
	assert.Equal(t, -MaxLatitude, l.Latitude)
}

func TestCompute_HighLatitudeIsClamped(t *testing.T) {
	zone := mustZone(t, "Europe/Oslo")
	calc := NewCalculator(SuncalcSource{}, zone)
	date := time.Date(2024, time.December, 21, 0, 0, 0, 0, zone)

	polar := calc.Compute(location.Location{Latitude: 78.2, Longitude: 15.6}, date)
	edge := calc.Compute(location.Location{Latitude: MaxLatitude, Longitude: 15.6}, date)

	assert.True(t, polar.Sunrise.Equal(edge.Sunrise))
	assert.True(t, polar.Sunset.Equal(edge.Sunset))
	assert.GreaterOrEqual(t, polar.Daylight(), MinDaylight)
}

// stubSource returns fixed minutes and can pretend some months have no sunrise
type stubSource struct {
	sunrise, sunset float64
	missing         map[time.Month]bool
	calls           int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) ReferenceDay(_, _ float64, _ time.Duration, month time.Month, _ int) (float64, float64, bool) {
	s.calls++
	if s.missing[month] {
		return 0, 0, false
	}
	return s.sunrise, s.sunset, true
}

func TestCompute_MinimumDaylight(t *testing.T) {
	src := &stubSource{sunrise: 12 * 60, sunset: 12*60 + 5}
	calc := NewCalculator(src, time.UTC)

	ev := calc.Compute(location.Location{}, time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, MinDaylight, ev.Daylight())
	assert.Equal(t, 12, ev.Noon().Hour())
}

func TestCompute_MissingReferenceDaysReusePrevious(t *testing.T) {
	src := &stubSource{
		sunrise: 6 * 60,
		sunset:  18 * 60,
		missing: map[time.Month]bool{time.June: true, time.July: true},
	}
	calc := NewCalculator(src, time.UTC)

	ev := calc.Compute(location.Location{}, time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 6, ev.Sunrise.Hour())
	assert.Equal(t, 18, ev.Sunset.Hour())
}

func TestCompute_TablesAreCached(t *testing.T) {
	src := &stubSource{sunrise: 6 * 60, sunset: 18 * 60}
	calc := NewCalculator(src, time.UTC)

	for d := 1; d <= 40; d++ {
		calc.Compute(location.Location{Latitude: 10}, time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC))
	}

	assert.Equal(t, 12, src.calls)
}

func TestCompute_LongitudeCorrection(t *testing.T) {
	src := &stubSource{sunrise: 6 * 60, sunset: 18 * 60}
	calc := NewCalculator(src, time.UTC)
	date := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	// 15 degrees west of the meridian is one hour later
	ev := calc.Compute(location.Location{Longitude: -15}, date)

	assert.Equal(t, 7, ev.Sunrise.Hour())
	assert.Equal(t, 19, ev.Sunset.Hour())
}
