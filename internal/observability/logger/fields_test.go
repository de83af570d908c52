package logger

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ana@gmail.com", "an***@gmail.com"},
		{"ab", "***"},
		{"", "***"},
		{"a@x.com", "a@***"},
		{"noatsign", "no***"},
	}
	for _, tc := range cases {
		if got := MaskEmail(tc.in); got != tc.want {
			t.Errorf("MaskEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
