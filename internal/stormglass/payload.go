package stormglass

import (
	"bytes"
	"encoding/json"
)

// Params is the fixed, ordered list of metrics requested from the provider.
var Params = []string{
	ParamWindSpeed, ParamWindDirection, ParamGust,
	ParamWaveHeight, ParamWaveDirection, ParamWavePeriod,
	ParamSwellHeight, ParamSwellDirection, ParamSwellPeriod,
	ParamWaterTemperature,
	ParamAirTemperature,
}

const (
	ParamWindSpeed        = "windSpeed"
	ParamWindDirection    = "windDirection"
	ParamGust             = "gust"
	ParamWaveHeight       = "waveHeight"
	ParamWaveDirection    = "waveDirection"
	ParamWavePeriod       = "wavePeriod"
	ParamSwellHeight      = "swellHeight"
	ParamSwellDirection   = "swellDirection"
	ParamSwellPeriod      = "swellPeriod"
	ParamWaterTemperature = "waterTemperature"
	ParamAirTemperature   = "airTemperature"
)

// SourceValue is one provider's reading for a metric. Value is nil for JSON null
// or non-numeric readings.
type SourceValue struct {
	Source string
	Value  *float64
}

// SourceValues holds a metric's per-source readings in the order the provider
// sent them.
type SourceValues []SourceValue

// UnmarshalJSON walks the object with a token decoder so the provider's key
// order survives. Anything other than an object decodes to no values.
func (sv *SourceValues) UnmarshalJSON(data []byte) error {
	*sv = nil

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var values SourceValues
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		values = append(values, SourceValue{Source: key, Value: numberOrNil(raw)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*sv = values
	return nil
}

func numberOrNil(raw json.RawMessage) *float64 {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		// null also lands here
		return nil
	}
	return &v
}

// RawHour is one entry of the provider's "hours" array, restricted to Params.
type RawHour struct {
	Time   string
	Values map[string]SourceValues
}

func (h *RawHour) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	h.Time = ""
	if raw, ok := fields["time"]; ok {
		// an unparsable time is dropped later by Normalize
		_ = json.Unmarshal(raw, &h.Time)
	}

	h.Values = make(map[string]SourceValues, len(Params))
	for _, p := range Params {
		raw, ok := fields[p]
		if !ok {
			continue
		}
		var sv SourceValues
		if err := json.Unmarshal(raw, &sv); err != nil {
			return err
		}
		h.Values[p] = sv
	}
	return nil
}

// Meta is the provider's request accounting.
type Meta struct {
	Cost         int `json:"cost"`
	DailyQuota   int `json:"dailyQuota"`
	RequestCount int `json:"requestCount"`
}

// Payload is a decoded point-forecast response.
type Payload struct {
	Hours []RawHour `json:"hours"`
	Meta  Meta      `json:"meta"`
}

// Decode parses a point-forecast response body.
func Decode(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
