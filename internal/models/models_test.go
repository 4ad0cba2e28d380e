package models

import (
	"encoding/json"
	"testing"
)

func TestParseCrewIDSet(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "strings", raw: `["c1","c2"]`, want: []string{"c1", "c2"}},
		{name: "dedupe and trim", raw: `[" c1 ","c1","","c2"]`, want: []string{"c1", "c2"}},
		{name: "numbers", raw: `[101, "c2"]`, want: []string{"101", "c2"}},
		{name: "malformed", raw: `["c1",`, want: []string{}},
		{name: "object", raw: `{"crew":"c1"}`, want: []string{}},
		{name: "null", raw: `null`, want: []string{}},
		{name: "empty", raw: ``, want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseCrewIDSet([]byte(tc.raw))
			if len(got) != len(tc.want) {
				t.Fatalf("unexpected set size: got=%v want=%v", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("unexpected member %d: got=%s want=%s", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestMoneyUnmarshalKeepsPrecision(t *testing.T) {
	var payload struct {
		Amount Money `json:"amount"`
	}
	if err := json.Unmarshal([]byte(`{"amount": 0.1}`), &payload); err != nil {
		t.Fatalf("unmarshal number failed: %v", err)
	}
	if payload.Amount.String() != "0.10" {
		t.Fatalf("unexpected amount: %s", payload.Amount.String())
	}
	if err := json.Unmarshal([]byte(`{"amount": "-20.005"}`), &payload); err != nil {
		t.Fatalf("unmarshal string failed: %v", err)
	}
	if payload.Amount.String() != "-20.01" {
		t.Fatalf("unexpected rounded amount: %s", payload.Amount.String())
	}
	if err := json.Unmarshal([]byte(`{"amount": "abc"}`), &payload); err == nil {
		t.Fatalf("expected invalid amount error")
	}
}
