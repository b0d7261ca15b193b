package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Reserved keys of the parameters object; every other key is an extra parameter
const (
	keyMethod  = "method"
	keyURL     = "url"
	keyHeaders = "headers"
	keyBody    = "body"
	keyDelay   = "delay"
)

// delayJSON is the object form of a delay
type delayJSON struct {
	Type         string `json:"type"`
	Milliseconds *int64 `json:"milliseconds,omitempty"`
	Lower        *int64 `json:"lower,omitempty"`
	Upper        *int64 `json:"upper,omitempty"`
}

/* ParseSpec decodes the "parameters" object of a webhook post-serve action
 * Structural problems are reported as *ConfigurationError
 * A missing method or url is not checked here; it fails when the firing resolves
 */
func ParseSpec(raw []byte) (RequestSpec, error) {
	var spec RequestSpec
	if err := spec.UnmarshalJSON(raw); err != nil {
		return RequestSpec{}, err
	}
	return spec, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (s *RequestSpec) UnmarshalJSON(raw []byte) error {
	if err := validateParameters(raw); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return &ConfigurationError{Reason: "decoding parameters", Err: err}
	}

	var spec RequestSpec
	for key, value := range fields {
		var err error
		switch key {
		case keyMethod:
			err = json.Unmarshal(value, &spec.method)
		case keyURL:
			err = json.Unmarshal(value, &spec.url)
		case keyBody:
			spec.hasBody = true
			err = json.Unmarshal(value, &spec.body)
		case keyHeaders:
			spec.headers, err = decodeHeaders(value)
		case keyDelay:
			spec.delay, err = decodeDelay(value)
		default:
			var v any
			err = json.Unmarshal(value, &v)
			if spec.extraParameters == nil {
				spec.extraParameters = make(map[string]any)
			}
			spec.extraParameters[key] = v
		}
		if err != nil {
			return &ConfigurationError{Reason: fmt.Sprintf("decoding %q", key), Err: err}
		}
	}

	*s = spec
	return nil
}

// decodeHeaders walks the object token by token so declaration order survives
func decodeHeaders(raw json.RawMessage) (Headers, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("reading headers object: %w", err)
	}

	var headers Headers
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading header name: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected header name token %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("reading header %q: %w", name, err)
		}

		var values []string
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			values = []string{single}
		} else if err := json.Unmarshal(value, &values); err != nil {
			return nil, fmt.Errorf("header %q must be a string or a list of strings", name)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("header %q declared without values", name)
		}
		headers = headers.add(name, values...)
	}
	return headers, nil
}

// decodeDelay accepts a bare number of milliseconds or a typed object
func decodeDelay(raw json.RawMessage) (*DelaySpec, error) {
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		d, err := NewFixedDelay(int64(ms))
		if err != nil {
			return nil, err
		}
		return &d, nil
	}

	var obj delayJSON
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("delay must be a number or an object: %w", err)
	}

	typ, err := NewDelayType(obj.Type)
	if err != nil {
		return nil, err
	}

	var d DelaySpec
	switch typ {
	case FixedDelay:
		if obj.Milliseconds == nil {
			return nil, fmt.Errorf("fixed delay requires milliseconds")
		}
		d, err = NewFixedDelay(*obj.Milliseconds)
	case UniformDelay:
		if obj.Lower == nil || obj.Upper == nil {
			return nil, fmt.Errorf("uniform delay requires lower and upper")
		}
		d, err = NewUniformDelay(*obj.Lower, *obj.Upper)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// MarshalJSON implements json.Marshaler, writing headers in declaration order
func (s RequestSpec) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	field := func(key string, value any) error {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding %q: %w", key, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(encoded)
		return nil
	}

	if s.method != "" {
		if err := field(keyMethod, s.method); err != nil {
			return nil, err
		}
	}
	if s.url != "" {
		if err := field(keyURL, s.url); err != nil {
			return nil, err
		}
	}
	if len(s.headers) > 0 {
		if err := field(keyHeaders, orderedHeaders(s.headers)); err != nil {
			return nil, err
		}
	}
	if s.hasBody {
		if err := field(keyBody, s.body); err != nil {
			return nil, err
		}
	}
	if s.delay != nil {
		if err := field(keyDelay, encodeDelay(*s.delay)); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(s.extraParameters))
	for k := range s.extraParameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := field(k, s.extraParameters[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeDelay(d DelaySpec) delayJSON {
	out := delayJSON{Type: d.Type.String()}
	switch d.Type {
	case FixedDelay:
		out.Milliseconds = &d.Milliseconds
	case UniformDelay:
		out.Lower = &d.Lower
		out.Upper = &d.Upper
	}
	return out
}

// orderedHeaders marshals as a JSON object without re-sorting its keys
type orderedHeaders Headers

func (h orderedHeaders) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, header := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(header.Name)
		if err != nil {
			return nil, err
		}
		var value []byte
		if len(header.Values) == 1 {
			value, err = json.Marshal(header.Values[0])
		} else {
			value, err = json.Marshal(header.Values)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
