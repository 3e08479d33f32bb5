// Package hook implements the stop hook protocol: a JSON document of any
// shape on stdin, exactly one {"ok": ...} document on stdout.
package hook

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/YoshitsuguKoike/qagate/internal/domain/gate"
)

// maxInputBytes bounds how much of stdin is read
const maxInputBytes = 1 << 20

// Input is the hook payload. It is only used for logging context.
type Input map[string]json.RawMessage

// ReadInput reads the hook payload. Unreadable input and anything other
// than a JSON object yield an empty Input.
func ReadInput(r io.Reader) Input {
	if r == nil {
		return Input{}
	}
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes))
	if err != nil {
		return Input{}
	}
	var in Input
	if err := json.Unmarshal(data, &in); err != nil || in == nil {
		return Input{}
	}
	return in
}

// Keys returns the top-level keys in sorted order
func (in Input) Keys() []string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Response is the verdict written to stdout
type Response struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// FromDecision converts a gate decision to a hook response
func FromDecision(d gate.Decision) Response {
	if d.Allow {
		return Response{OK: true}
	}
	return Response{OK: false, Reason: d.Reason}
}

// WriteResponse writes the response as a single JSON document
func WriteResponse(w io.Writer, resp Response) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}
