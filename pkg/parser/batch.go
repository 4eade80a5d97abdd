package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/atlassian/gmetricd"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// batchEntry is one object of a structured batch.
type batchEntry struct {
	Counter    *string   `json:"counter"`
	Timer      *string   `json:"timer"`
	Gauge      *string   `json:"gauge"`
	Value      *numValue `json:"value"`
	SampleRate *numValue `json:"sample_rate"`
}

// numValue accepts both JSON numbers and numeric strings.
type numValue float64

func (n *numValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return ErrInvalidValue
		}
		*n = numValue(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return ErrInvalidValue
	}
	*n = numValue(v)
	return nil
}

// ParseBatch decodes a JSON object or array of objects. Every object must carry exactly one of counter, timer or
// gauge along with its value. Entries that fail are reported in bad and do not stop the rest of the batch. The
// returned error is only set when buf is not a JSON object or array at all.
func ParseBatch(buf []byte) (samples []gmetricd.Sample, bad []error, err error) {
	var raw []jsoniter.RawMessage
	if len(buf) > 0 && buf[0] == '[' {
		if err := json.Unmarshal(buf, &raw); err != nil {
			return nil, nil, fmt.Errorf("invalid batch: %v", err)
		}
	} else {
		if !jsoniter.Valid(buf) {
			return nil, nil, fmt.Errorf("invalid batch: %q", buf)
		}
		raw = []jsoniter.RawMessage{buf}
	}
	samples = make([]gmetricd.Sample, 0, len(raw))
	for _, r := range raw {
		sample, err := parseEntry(r)
		if err != nil {
			bad = append(bad, err)
			continue
		}
		samples = append(samples, sample)
	}
	return samples, bad, nil
}

func parseEntry(r jsoniter.RawMessage) (gmetricd.Sample, error) {
	var e batchEntry
	if err := json.Unmarshal(r, &e); err != nil {
		return gmetricd.Sample{}, fmt.Errorf("invalid entry %s: %v", r, err)
	}
	var sample gmetricd.Sample
	found := 0
	if e.Counter != nil {
		found++
		sample.Type = gmetricd.COUNTER
		sample.Name = *e.Counter
		sample.Value = 1
	}
	if e.Timer != nil {
		found++
		sample.Type = gmetricd.TIMER
		sample.Name = *e.Timer
	}
	if e.Gauge != nil {
		found++
		sample.Type = gmetricd.GAUGE
		sample.Name = *e.Gauge
	}
	switch found {
	case 0:
		return sample, ErrMissingType
	case 1:
	default:
		return sample, ErrConflictingType
	}
	sample.Name = SanitizeKey(sample.Name)
	if sample.Name == "" {
		return sample, ErrEmptyKey
	}
	if e.Value != nil {
		sample.Value = float64(*e.Value)
	} else if sample.Type != gmetricd.COUNTER {
		return sample, ErrInvalidValue
	}
	if e.SampleRate != nil && sample.Type == gmetricd.COUNTER {
		sample.Rate = float64(*e.SampleRate)
	}
	if err := checkFinite(sample); err != nil {
		return sample, err
	}
	return sample, nil
}
