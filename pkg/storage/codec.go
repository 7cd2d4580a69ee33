package storage

import "encoding/json"

func encodeJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// every value passed here is a fixed-shape struct defined in this
		// module; a marshal failure means a programming error, not a
		// runtime condition callers can recover from.
		panic(err)
	}
	return b
}

func decodeJSON(b []byte, v any) error {
	return json.Unmarshal(b, v)
}
