package scrape

import "testing"

func TestLookup(t *testing.T) {
	obj, err := Decode(`{
		"detail": {
			"name": "Fund",
			"fee": "0,79",
			"size": 12,
			"charts": [
				{"type": "countries", "items": [{"name": "США", "relativeValue": 98.5}]},
				{"type": "sectors", "items": []}
			]
		}
	}`)
	if err != nil {
		t.Fatalf("Decode() unexpected error = %v", err)
	}

	if s, err := LookupString(obj, "$.detail.name"); err != nil || s != "Fund" {
		t.Errorf("LookupString() = %q, %v, want Fund", s, err)
	}
	if s, err := LookupString(obj, "$.detail.size"); err != nil || s != "12" {
		t.Errorf("LookupString() = %q, %v, want 12", s, err)
	}
	if f, err := LookupFloat(obj, "$.detail.fee"); err != nil || f != 0.79 {
		t.Errorf("LookupFloat() = %v, %v, want 0.79", f, err)
	}
	if _, err := LookupMap(obj, "$.detail.missing"); err == nil {
		t.Errorf("LookupMap() expected an error for a missing key")
	}

	items, err := Lookup(obj, "$.detail.charts[0].items")
	if list, ok := items.([]any); err != nil || !ok || len(list) != 1 {
		t.Errorf("Lookup() = %v, %v, want a single item", items, err)
	}
}

func TestShares(t *testing.T) {
	got, err := Shares(map[string]any{"a": 0.5, "b": "0,5"})
	if err != nil || got["a"] != 0.5 || got["b"] != 0.5 {
		t.Errorf("Shares() = %v, %v", got, err)
	}
	if _, err := Shares(map[string]any{"a": true}); err == nil {
		t.Errorf("Shares() expected an error for a non number")
	}
}

func TestOptional(t *testing.T) {
	obj, err := Decode(`{"share": {"countryShare": {"US": 1}, "otherShare": null, "list": [1], "text": "x"}}`)
	if err != nil {
		t.Fatalf("Decode() unexpected error = %v", err)
	}

	tests := []struct {
		keys    []string
		present bool
		wantErr bool
	}{
		{keys: []string{"share", "countryShare"}, present: true},
		{keys: []string{"share", "otherShare"}},
		{keys: []string{"share", "missing"}},
		{keys: []string{"missing", "countryShare"}},
		{keys: []string{"share", "list"}, wantErr: true},
		{keys: []string{"share", "text", "inner"}, wantErr: true},
	}
	for _, tc := range tests {
		m, err := OptionalMap(obj, tc.keys...)
		if (err != nil) != tc.wantErr {
			t.Errorf("OptionalMap(%v) error = %v, wantErr %v", tc.keys, err, tc.wantErr)
			continue
		}
		if (m != nil) != tc.present {
			t.Errorf("OptionalMap(%v) = %v, want present %v", tc.keys, m, tc.present)
		}
	}

	if l, err := OptionalList(obj, "share", "list"); err != nil || len(l) != 1 {
		t.Errorf("OptionalList() = %v, %v, want a single item", l, err)
	}
	if _, err := OptionalList(obj, "share", "countryShare"); err == nil {
		t.Errorf("OptionalList() expected an error for an object")
	}
}
