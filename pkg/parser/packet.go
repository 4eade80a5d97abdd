package parser

import (
	"bytes"
	"fmt"

	"github.com/atlassian/gmetricd"
)

// ParsePacket decodes the payload of a datagram. Payloads starting with { or [ are structured batches, anything
// else is newline separated lines. Every line or entry which fails to parse is reported in bad.
func ParsePacket(msg []byte) (samples []gmetricd.Sample, bad []error) {
	if len(msg) > 0 && (msg[0] == '{' || msg[0] == '[') {
		samples, bad, err := ParseBatch(msg)
		if err != nil {
			return nil, []error{err}
		}
		return samples, bad
	}
	for {
		idx := bytes.IndexByte(msg, '\n')
		var line []byte
		// protocol does not require line to end in \n
		if idx == -1 { // \n not found
			if len(msg) == 0 {
				break
			}
			line = msg
			msg = nil
		} else { // usual case
			line = msg[:idx]
			msg = msg[idx+1:]
		}
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		s, err := ParseLine(line)
		if err != nil {
			bad = append(bad, fmt.Errorf("line %q: %v", line, err))
			continue
		}
		samples = append(samples, s...)
	}
	return samples, bad
}
