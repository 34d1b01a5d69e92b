package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed is returned when benchmark data cannot be decoded.
var ErrMalformed = errors.New("malformed benchmark data")

// ErrBadValue is returned when a measurement value is not a JSON number.
var ErrBadValue = errors.New("measurement value is not a JSON number")

const (
	globalName   = "window.BENCHMARK_DATA"
	scriptPrefix = globalName + " = "
)

// Format selects the on-disk representation of a Dataset.
type Format int

const (
	// FormatScript is the data.js form: a global assignment the dashboard
	// page loads with a <script> tag.
	FormatScript Format = iota
	// FormatJSON is the bare JSON object.
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatScript:
		return "script"
	case FormatJSON:
		return "json"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Parse decodes benchmark data in either the script or the JSON form and
// reports which one it found.
func Parse(data []byte) (*Dataset, Format, error) {
	body := bytes.TrimSpace(data)
	format := FormatJSON

	if bytes.HasPrefix(body, []byte(globalName)) {
		rest := bytes.TrimSpace(body[len(globalName):])
		if len(rest) == 0 || rest[0] != '=' {
			return nil, 0, fmt.Errorf("%w: expected '=' after %s",
				ErrMalformed, globalName)
		}

		body = bytes.TrimSpace(rest[1:])
		body = bytes.TrimSpace(bytes.TrimSuffix(body, []byte(";")))
		format = FormatScript
	}

	if len(body) == 0 || body[0] != '{' {
		return nil, 0, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}

	dec := json.NewDecoder(bytes.NewReader(body))

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, 0, fmt.Errorf("%w: trailing data after object",
			ErrMalformed)
	}

	return &ds, format, nil
}

// Marshal encodes ds the way the dashboard generator does: two-space
// indentation, no HTML escaping and no trailing newline.
func Marshal(ds *Dataset, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if format == FormatScript {
		buf.WriteString(scriptPrefix)
	}

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(ds); err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalJSON encodes the suites as a JSON object in slice order.
func (s Suites) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, suite := range s {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := marshalNoEscape(suite.Name)
		if err != nil {
			return nil, err
		}

		runs := suite.Runs
		if runs == nil {
			runs = []Run{}
		}

		val, err := marshalNoEscape(runs)
		if err != nil {
			return nil, fmt.Errorf("suite %q: %w", suite.Name, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into suites, keeping key order. A
// repeated key replaces the earlier value in place, as JavaScript does.
func (s *Suites) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("entries: expected object, got %v", tok)
	}

	out := Suites{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("entries: expected suite name, got %v", tok)
		}

		var runs []Run
		if err := dec.Decode(&runs); err != nil {
			return fmt.Errorf("suite %q: %w", name, err)
		}

		if existing := out.index(name); existing >= 0 {
			out[existing].Runs = runs
			continue
		}

		out = append(out, Suite{Name: name, Runs: runs})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out

	return nil
}

func (s Suites) index(name string) int {
	for i := range s {
		if s[i].Name == name {
			return i
		}
	}

	return -1
}

// MarshalJSON encodes a run, writing an absent benches list as [].
func (r Run) MarshalJSON() ([]byte, error) {
	type plain Run

	p := plain(r)
	if p.Benches == nil {
		p.Benches = []Measurement{}
	}

	return marshalNoEscape(p)
}

// UnmarshalJSON decodes a measurement, accepting only a JSON number token
// for value. Strings, null and a missing value are rejected rather than
// coerced, so that a rewrite never changes the data.
func (m *Measurement) UnmarshalJSON(b []byte) error {
	type plain Measurement

	var raw struct {
		plain
		Value json.RawMessage `json:"value"`
	}

	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	v := bytes.TrimSpace(raw.Value)

	switch {
	case len(v) == 0:
		return fmt.Errorf("%w: measurement %q has no value", ErrBadValue, raw.Name)
	case v[0] != '-' && (v[0] < '0' || v[0] > '9'):
		return fmt.Errorf("%w: measurement %q has value %s", ErrBadValue, raw.Name, v)
	}

	*m = Measurement(raw.plain)
	m.Value = json.Number(v)

	return nil
}

// MarshalJSON refuses to write a measurement without a value, which
// encoding/json would otherwise emit as 0.
func (m Measurement) MarshalJSON() ([]byte, error) {
	type plain Measurement

	if m.Value == "" {
		return nil, fmt.Errorf("%w: measurement %q has no value", ErrBadValue, m.Name)
	}

	return marshalNoEscape(plain(m))
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
