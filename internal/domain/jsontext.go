package domain

import "encoding/json"

// DecodeJSONText unmarshals a TEXT column that holds JSON. Some historical rows
// were written double-encoded (a JSON string containing JSON), so when the raw
// bytes decode to a string the inner payload is decoded instead.
func DecodeJSONText(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		if inner == "" {
			return nil
		}
		return json.Unmarshal([]byte(inner), v)
	}
	return json.Unmarshal(raw, v)
}

// EncodeJSONText marshals v for storage in a TEXT column. Nil slices and maps
// are written as empty JSON containers rather than null so readers in other
// tools don't trip over them.
func EncodeJSONText(v any) (string, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(buf)
	if s == "null" {
		s = "[]"
	}
	return s, nil
}
