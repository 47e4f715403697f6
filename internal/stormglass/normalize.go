package stormglass

import (
	"iter"
	"math"
	"time"
)

// SourcePriority lists the preferred sources, best first.
var SourcePriority = []string{"noaa", "meteo", "dwd", "smhi", "sg"}

// PickSource returns the value of the first priority source that has a
// non-null reading, falling back to the first non-null reading in provider
// order. Values from different sources are never blended.
func PickSource(values SourceValues) (float64, bool) {
	for _, src := range SourcePriority {
		for _, v := range values {
			if v.Source == src && v.Value != nil {
				return *v.Value, true
			}
		}
	}
	for _, v := range values {
		if v.Value != nil {
			return *v.Value, true
		}
	}
	return 0, false
}

// Hour is one normalized forecast hour. Nil fields were not reported by any source.
type Hour struct {
	Time time.Time

	WindSpeedMS      *float64
	WindDirectionDeg *int
	GustMS           *float64

	WaveHeightM      *float64
	WavePeriodS      *float64
	WaveDirectionDeg *int

	SwellHeightM      *float64
	SwellPeriodS      *float64
	SwellDirectionDeg *int

	WaterTempC *float64
	AirTempC   *float64
}

// Normalize yields one Hour per payload hour, in payload order. Hours whose
// time cannot be parsed are skipped.
func Normalize(p *Payload) iter.Seq[Hour] {
	return func(yield func(Hour) bool) {
		if p == nil {
			return
		}
		for _, raw := range p.Hours {
			t, err := time.Parse(time.RFC3339, raw.Time)
			if err != nil {
				continue
			}
			h := Hour{
				Time:              t.UTC(),
				WindSpeedMS:       pick(raw, ParamWindSpeed),
				WindDirectionDeg:  direction(raw, ParamWindDirection),
				GustMS:            pick(raw, ParamGust),
				WaveHeightM:       pick(raw, ParamWaveHeight),
				WavePeriodS:       pick(raw, ParamWavePeriod),
				WaveDirectionDeg:  direction(raw, ParamWaveDirection),
				SwellHeightM:      pick(raw, ParamSwellHeight),
				SwellPeriodS:      pick(raw, ParamSwellPeriod),
				SwellDirectionDeg: direction(raw, ParamSwellDirection),
				WaterTempC:        pick(raw, ParamWaterTemperature),
				AirTempC:          pick(raw, ParamAirTemperature),
			}
			if !yield(h) {
				return
			}
		}
	}
}

func pick(raw RawHour, param string) *float64 {
	v, ok := PickSource(raw.Values[param])
	if !ok {
		return nil
	}
	return &v
}

func direction(raw RawHour, param string) *int {
	v, ok := PickSource(raw.Values[param])
	if !ok {
		return nil
	}
	deg := int(math.Round(v))
	return &deg
}
