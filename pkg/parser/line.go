package parser

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/atlassian/gmetricd"
)

var (
	// ErrEmptyKey is returned when nothing is left of a key after sanitization.
	ErrEmptyKey = errors.New("empty key")
	// ErrInvalidValue is returned when a value is not a number.
	ErrInvalidValue = errors.New("invalid value")
	// ErrInvalidSampleRate is returned when a sample rate is not a number.
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	// ErrConflictingType is returned when a batch entry names more than one metric type.
	ErrConflictingType = errors.New("entry has more than one of counter, timer and gauge")
	// ErrMissingType is returned when a batch entry names no metric type.
	ErrMissingType = errors.New("entry has none of counter, timer and gauge")
)

// ParseLine decodes a single line of the form key:value|type[|@rate]. Several value groups may follow the key,
// each separated by a colon: key:1|c:250|ms.
func ParseLine(line []byte) ([]gmetricd.Sample, error) {
	fields := strings.Split(string(line), ":")
	key := SanitizeKey(fields[0])
	if key == "" {
		return nil, ErrEmptyKey
	}
	samples := make([]gmetricd.Sample, 0, len(fields))
	for _, field := range fields[1:] {
		if field == "" {
			continue
		}
		sample, err := parseValueGroup(key, field)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	if len(samples) == 0 {
		// A bare key counts one event.
		samples = append(samples, gmetricd.Sample{
			Name:  key,
			Value: 1,
			Type:  gmetricd.COUNTER,
		})
	}
	return samples, nil
}

func parseValueGroup(key, group string) (gmetricd.Sample, error) {
	parts := strings.Split(group, "|")
	sample := gmetricd.Sample{
		Name:  key,
		Value: 1,
		Type:  gmetricd.COUNTER,
	}
	if parts[0] != "" {
		v, err := parseValue(parts[0])
		if err != nil {
			return sample, err
		}
		sample.Value = v
	}
	if len(parts) > 1 && strings.HasPrefix(parts[1], "ms") {
		sample.Type = gmetricd.TIMER
	}
	if len(parts) > 2 && strings.HasPrefix(parts[2], "@") {
		r, err := strconv.ParseFloat(SanitizeValue(parts[2][1:]), 64)
		if err != nil {
			return sample, ErrInvalidSampleRate
		}
		sample.Rate = r
	}
	if err := checkFinite(sample); err != nil {
		return sample, err
	}
	return sample, nil
}

// checkFinite rejects samples that would put an infinity or NaN into the store once a counter is extrapolated
// by its sample rate.
func checkFinite(sample gmetricd.Sample) error {
	v := sample.Value
	if sample.Type == gmetricd.COUNTER && sample.Rate > 0 {
		v /= sample.Rate
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return ErrInvalidValue
	}
	return nil
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(SanitizeValue(s), 64)
	if err != nil {
		return 0, ErrInvalidValue
	}
	return v, nil
}
