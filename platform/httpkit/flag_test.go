package httpkit

import (
	"encoding/json"
	"testing"
)

func TestFlagUnmarshal(t *testing.T) {
	cases := map[string]Flag{
		`true`:    {Value: true, Set: true},
		`false`:   {Value: false, Set: true},
		`"false"`: {Value: false, Set: true},
		`"FALSE"`: {Value: false, Set: true},
		`"true"`:  {Value: true, Set: true},
		`"Yes"`:   {Value: true, Set: true},
		`"on"`:    {Value: true, Set: true},
		`"1"`:     {Value: true, Set: true},
		`"0"`:     {Value: false, Set: true},
		`"no"`:    {Value: false, Set: true},
		`""`:      {Value: false, Set: true},
		`1`:       {Value: true, Set: true},
		`0`:       {Value: false, Set: true},
		`{}`:      {Value: false, Set: true},
		`null`:    {},
	}

	for raw, want := range cases {
		var payload struct {
			TestDrive Flag `json:"testDrive"`
		}
		if err := json.Unmarshal([]byte(`{"testDrive":`+raw+`}`), &payload); err != nil {
			t.Fatalf("%s: unmarshal: %v", raw, err)
		}
		if payload.TestDrive != want {
			t.Fatalf("%s: expected %+v, got %+v", raw, want, payload.TestDrive)
		}
	}
}

func TestFlagAbsentIsUnset(t *testing.T) {
	var payload struct {
		TestDrive Flag `json:"testDrive"`
	}
	if err := json.Unmarshal([]byte(`{}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.TestDrive.Set || payload.TestDrive.Ptr() != nil {
		t.Fatalf("expected unset flag, got %+v", payload.TestDrive)
	}
}

func TestFlagOmitzero(t *testing.T) {
	payload := struct {
		A Flag `json:"a,omitzero"`
		B Flag `json:"b,omitzero"`
	}{B: NewFlag(false)}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"b":false}` {
		t.Fatalf("unexpected json %s", out)
	}
}
