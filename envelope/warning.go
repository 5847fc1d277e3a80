package envelope

import "github.com/ggoodman/moodlews-go/jsonval"

// Warning is the conventional shape of one entry of the warnings array.
// Servers are not required to fill every field.
type Warning struct {
	Item        string
	ItemID      int64
	WarningCode string
	Message     string
}

// DecodeWarnings reads the warnings array leniently: missing or mistyped
// fields stay zero and non-object entries are skipped.
func DecodeWarnings(warnings jsonval.Value) []Warning {
	var out []Warning
	for _, w := range warnings.Elements() {
		if w.Kind() != jsonval.Object {
			continue
		}
		var d Warning
		if v, ok := w.Get("item"); ok {
			d.Item, _ = v.AsString()
		}
		if v, ok := w.Get("itemid"); ok {
			d.ItemID, _ = v.Int()
		}
		if v, ok := w.Get("warningcode"); ok {
			d.WarningCode, _ = v.AsString()
		}
		if v, ok := w.Get("message"); ok {
			d.Message, _ = v.AsString()
		}
		out = append(out, d)
	}
	return out
}
