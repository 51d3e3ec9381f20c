package domain

import "encoding/json"

// Extension is a schema-namespaced bag of fields attached to a user.
// Field values are kept as raw JSON so types the service does not care
// about survive a round trip.
type Extension struct {
	URN    string
	Fields map[string]json.RawMessage
}

func NewExtension(urn string) *Extension {
	return &Extension{URN: urn, Fields: make(map[string]json.RawMessage)}
}

// SetString adds or replaces a string field.
func (e *Extension) SetString(name, value string) {
	if e.Fields == nil {
		e.Fields = make(map[string]json.RawMessage)
	}
	raw, _ := json.Marshal(value)
	e.Fields[name] = raw
}

// StringField returns the named field when it exists and holds a JSON string.
func (e *Extension) StringField(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	raw, ok := e.Fields[name]
	if !ok {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}

func (e *Extension) Clone() *Extension {
	if e == nil {
		return nil
	}
	out := NewExtension(e.URN)
	for k, v := range e.Fields {
		out.Fields[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

func (e Extension) MarshalJSON() ([]byte, error) {
	if e.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.Fields)
}
