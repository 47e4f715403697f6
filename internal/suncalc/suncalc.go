// Package suncalc computes dawn, sunrise, sunset and dusk for fishing spots.
package suncalc

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sj14/astral/pkg/astral"
)

// cacheTTL keeps a day's results around for the rest of the day's page views.
const cacheTTL = 12 * time.Hour

// SunEventTimes holds the sun events of one day in the calculator's time zone.
type SunEventTimes struct {
	CivilDawn time.Time `json:"civil_dawn"`
	Sunrise   time.Time `json:"sunrise"`
	Sunset    time.Time `json:"sunset"`
	CivilDusk time.Time `json:"civil_dusk"`
}

// SunCalc calculates and caches sun event times for any coordinate.
// Safe for concurrent use.
type SunCalc struct {
	loc   *time.Location
	cache *cache.Cache
}

// NewSunCalc creates a calculator reporting times in loc (UTC when nil).
func NewSunCalc(loc *time.Location) *SunCalc {
	if loc == nil {
		loc = time.UTC
	}
	return &SunCalc{
		loc:   loc,
		cache: cache.New(cacheTTL, time.Hour),
	}
}

// Location returns the zone results are converted to.
func (sc *SunCalc) Location() *time.Location {
	return sc.loc
}

// GetSunEventTimes returns the sun events at (latitude, longitude) for the calendar
// day of date in the calculator's zone. Polar day or night yields an error.
func (sc *SunCalc) GetSunEventTimes(latitude, longitude float64, date time.Time) (SunEventTimes, error) {
	if math.Abs(latitude) > 90 || math.Abs(longitude) > 180 {
		return SunEventTimes{}, fmt.Errorf("coordinates out of range: %g, %g", latitude, longitude)
	}

	local := date.In(sc.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, sc.loc)
	key := cacheKey(latitude, longitude, day)

	if cached, ok := sc.cache.Get(key); ok {
		return cached.(SunEventTimes), nil
	}

	times, err := sc.calculate(astral.Observer{Latitude: latitude, Longitude: longitude}, day)
	if err != nil {
		return SunEventTimes{}, err
	}
	sc.cache.SetDefault(key, times)
	return times, nil
}

func cacheKey(latitude, longitude float64, day time.Time) string {
	return strconv.FormatFloat(latitude, 'f', 4, 64) + "," +
		strconv.FormatFloat(longitude, 'f', 4, 64) + "@" +
		day.Format(time.DateOnly)
}

func (sc *SunCalc) calculate(observer astral.Observer, day time.Time) (SunEventTimes, error) {
	civilDawn, err := astral.Dawn(observer, day, astral.DepressionCivil)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate civil dawn: %w", err)
	}
	sunrise, err := astral.Sunrise(observer, day)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate sunrise: %w", err)
	}
	sunset, err := astral.Sunset(observer, day)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate sunset: %w", err)
	}
	civilDusk, err := astral.Dusk(observer, day, astral.DepressionCivil)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate civil dusk: %w", err)
	}

	return SunEventTimes{
		CivilDawn: civilDawn.In(sc.loc),
		Sunrise:   sunrise.In(sc.loc),
		Sunset:    sunset.In(sc.loc),
		CivilDusk: civilDusk.In(sc.loc),
	}, nil
}
