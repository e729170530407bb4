package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half away from zero
		{"-1.005", -101, true},
		{" 2.50 ", 250, true},
		{"-220", -22000, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"92233720368547758.07", 9223372036854775807, true},
		{"92233720368547758.08", 0, false},
		{"-92233720368547758.09", 0, false},
		{"100000000000000000", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		2000:   "20.00",
		-2000:  "-20.00",
		1:      "0.01",
		123456: "1234.56",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("%d: got %s want %s", cents, got, want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Money `json:"a"`
	}{Money{Cents: -1250}})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"a":-12.5}` {
		t.Fatalf("got %s", b)
	}

	for _, in := range []string{`{"a":12.34}`, `{"a":"12.34"}`} {
		var out struct {
			A Money `json:"a"`
		}
		if err := json.Unmarshal([]byte(in), &out); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if out.A.Cents != 1234 {
			t.Fatalf("%s: got %d", in, out.A.Cents)
		}
	}

	var bad struct {
		A Money `json:"a"`
	}
	if err := json.Unmarshal([]byte(`{"a":"twelve"}`), &bad); err == nil {
		t.Fatal("expected error for non-numeric amount")
	}

	for _, in := range []string{`{"a":100000000000000000}`, `{"a":-1e20}`} {
		err := json.Unmarshal([]byte(in), &bad)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s: expected ErrInvalidAmount, got %v", in, err)
		}
	}
}
