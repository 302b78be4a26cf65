package province

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var sample = []string{"Hà Nội", "Thành phố Hồ Chí Minh", "Thừa Thiên Huế", "Đà Nẵng", "Quảng Nam", "Bà Rịa - Vũng Tàu"}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Thừa Thiên Huế":  "thua thien hue",
		"  ĐÀ   NẴNG  ":   "da nang",
		"Tỉnh Quảng Trị!": "tinh quang tri",
		"Hồ Chí Minh 2":   "ho chi minh 2",
		"":                "",
	}
	for in, want := range cases {
		require.Equal(t, want, Normalize(in), in)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	r := NewResolver(sample)
	cases := []struct {
		in   string
		want string
	}{
		{"Thua Thien Hue", "Thừa Thiên Huế"},
		{"tỉnh Thừa Thiên Huế", "Thừa Thiên Huế"},
		{"Thành phố Đà Nẵng", "Đà Nẵng"},
		{"Hồ Chí Minh", "Thành phố Hồ Chí Minh"},
		{"Hà Nội (cũ)", "Hà Nội"},
		{"Quảng Nam, Việt Nam", "Quảng Nam"},
		{"Huế", "Thừa Thiên Huế"},
		{"Tp. Ha Noi", "Hà Nội"},
		{"Quang Namm", "Quảng Nam"},
		{"Thua Thein Hue", "Thừa Thiên Huế"},
		{"  Atlantis  ", "Atlantis"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, r.Resolve(tc.in), tc.in)
	}
}

func TestResolveWithoutProvincesReturnsTrimmedInput(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	require.Equal(t, 0, r.Len())
	require.Equal(t, "Huế", r.Resolve("  Huế "))
}

func TestResolveIgnoresEmptyMasterEntries(t *testing.T) {
	t.Parallel()

	r := NewResolver([]string{"", "  ", "Huế"})
	require.Equal(t, 1, r.Len())
}
