package core

import (
	"strings"
	"testing"
	"time"
)

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"12.34", 1234, true},
		{"0.01", 1, true},
		{"12.345", 1235, true}, // third digit rounds half away from zero
		{"12.344", 1234, true},
		{"1.005", 101, true},
		{" 2.50 ", 250, true},
		{"0.1", 10, true},
		{"-1", -100, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1,23", 0, false},
		{"", 0, false},
		{"99999999999999999999999", 0, false},
		{"1e3", 100000, true},
		{"1e65", 0, false},
		{"1e-65", 0, false},
	}
	for _, tc := range cases {
		got, err := ToMinorUnits(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %d", tc.in, got)
		}
	}
}

func TestToDecimalString(t *testing.T) {
	cases := map[int64]string{
		0:          "0.00",
		5:          "0.05",
		10:         "0.10",
		1234:       "12.34",
		100000:     "1000.00",
		-250:       "-2.50",
		1000000000: "10000000.00",
	}
	for in, want := range cases {
		if got := ToDecimalString(in); got != want {
			t.Fatalf("%d expected %q, got %q", in, want, got)
		}
	}
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	for _, minor := range []int64{1, 7, 99, 100, 1234, 999999, 1000000000} {
		back, err := ToMinorUnits(ToDecimalString(minor))
		if err != nil || back != minor {
			t.Fatalf("round trip of %d gave %d (err=%v)", minor, back, err)
		}
	}
}

func TestMoneyAddAvoidsFloatDrift(t *testing.T) {
	a, _ := ToMinorUnits("0.1")
	b, _ := ToMinorUnits("0.2")
	sum := Money{Minor: a}.Add(Money{Minor: b})
	if sum.String() != "0.30" {
		t.Fatalf("expected 0.30, got %s", sum)
	}
}

func TestParseAmountBoundsLiterals(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"1e64", true},
		{"1e-64", true},
		{"1e20000000", false},
		{"1e2000000000", false},
		{"-1e-2000000000", false},
		{strings.Repeat("9", 64), true},
		{strings.Repeat("9", 65), false},
	}
	for _, tc := range cases {
		start := time.Now()
		_, err := ParseAmount(tc.in)
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Fatalf("%q took %s", tc.in, elapsed)
		}
		if tc.ok && err != nil {
			t.Fatalf("%q expected to parse, got %v", tc.in, err)
		}
		if !tc.ok && err != ErrInvalidAmount {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestValidateLargeExponentIsFast(t *testing.T) {
	v := NewValidator(DefaultLimits())
	in := ExpenseInput{Amount: "1e20000000", Category: "Food", Description: "x", Date: "2024-01-15"}
	start := time.Now()
	errs := v.Validate(in)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("validation took %s", elapsed)
	}
	if len(errs) != 1 || errs[0] != MsgAmountNotPositive {
		t.Fatalf("expected single amount violation, got %v", errs)
	}
}
