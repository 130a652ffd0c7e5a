package metrics

import (
	"encoding/json"
	"strconv"
)

// Optional is a time that may be undefined for a given response.
type Optional struct {
	value float64
	ok    bool
}

// Undefined is the absent value.
var Undefined = Optional{}

func Defined(v float64) Optional {
	return Optional{value: v, ok: true}
}

func (o Optional) Value() (float64, bool) {
	return o.value, o.ok
}

func (o Optional) IsDefined() bool { return o.ok }

// Or returns the value, or fallback when undefined.
func (o Optional) Or(fallback float64) float64 {
	if !o.ok {
		return fallback
	}
	return o.value
}

func (o Optional) String() string {
	if !o.ok {
		return "undefined"
	}
	return strconv.FormatFloat(o.value, 'g', -1, 64)
}

func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Undefined
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Defined(v)
	return nil
}
