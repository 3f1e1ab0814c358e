package core

import (
	"errors"
	"math"
	"testing"
)

func TestNormalizeEntities(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Camp 4", "Camp 4"},
		{"single escape", "Tom &amp; Jerry", "Tom & Jerry"},
		{"double escape needs two passes", "&amp;apos;s", "'s"},
		{"decimal entity", "they&#39;re", "they're"},
		{"hex entity", "they&#x27;re", "they're"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeEntities(tc.in); got != tc.want {
				t.Errorf("NormalizeEntities(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Camp  Muir ", "Camp  Muir"},
		{"&lt;summit&gt;", "<summit>"},
		{"\n\tRidge\n", "Ridge"},
	}
	for _, tc := range cases {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		a, b string
	}{
		{"Camp", "CAMP"},
		{"Camp   Muir", "camp muir"},
		{"Tom &amp; Jerry", "tom & jerry"},
		{"  Lost  Lake ", "lost\tlake"},
	}
	for _, tc := range cases {
		if NormalizeKey(tc.a) != NormalizeKey(tc.b) {
			t.Errorf("keys differ: %q=%q vs %q=%q", tc.a, NormalizeKey(tc.a), tc.b, NormalizeKey(tc.b))
		}
	}
}

func TestParseLonLat(t *testing.T) {
	lon, lat, err := ParseLonLat([]float64{-120.5, 45.25, 1000, 1.7e12})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lon != -120.5 || lat != 45.25 {
		t.Errorf("got (%v, %v)", lon, lat)
	}

	if _, _, err := ParseLonLat([]float64{-120.5}); !errors.Is(err, ErrShortCoordinate) {
		t.Errorf("want ErrShortCoordinate, got %v", err)
	}
	if _, _, err := ParseLonLat(nil); !errors.Is(err, ErrShortCoordinate) {
		t.Errorf("want ErrShortCoordinate, got %v", err)
	}
}

func TestParseOptionalEleTime(t *testing.T) {
	ele, ts := ParseOptionalEleTime([]float64{-120, 45, 1234.5, 1700000000000})
	if ele == nil || *ele != 1234.5 {
		t.Errorf("ele = %v", ele)
	}
	if ts == nil || *ts != 1700000000000 {
		t.Errorf("ts = %v", ts)
	}

	// Only lon/lat: both optionals absent.
	ele, ts = ParseOptionalEleTime([]float64{-120, 45})
	if ele != nil || ts != nil {
		t.Errorf("want absent, got ele=%v ts=%v", ele, ts)
	}

	// A corrupt elevation must not take the time down with it.
	ele, ts = ParseOptionalEleTime([]float64{-120, 45, math.NaN(), 1700000000000})
	if ele != nil {
		t.Errorf("want nil ele, got %v", ele)
	}
	if ts == nil || *ts != 1700000000000 {
		t.Errorf("ts = %v", ts)
	}
}

func TestISO8601ToEpochMS(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want *int64
	}{
		{"zulu", "2024-06-01T12:00:00Z", ptrInt64(1717243200000)},
		{"no zone means utc", "2024-06-01T12:00:00", ptrInt64(1717243200000)},
		{"offset", "2024-06-01T12:00:00+02:00", ptrInt64(1717236000000)},
		{"empty", "", nil},
		{"garbage", "not-a-time", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ISO8601ToEpochMS(tc.in)
			switch {
			case tc.want == nil && got != nil:
				t.Errorf("want nil, got %d", *got)
			case tc.want != nil && got == nil:
				t.Errorf("want %d, got nil", *tc.want)
			case tc.want != nil && *got != *tc.want:
				t.Errorf("want %d, got %d", *tc.want, *got)
			}
		})
	}
}

func ptrInt64(v int64) *int64 { return &v }
