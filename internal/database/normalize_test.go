package database

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Kabasélé", "kabasele"},
		{"Jean-Pierre", "jean pierre"},
		{"  NGOY  ", "ngoy"},
		{"Tshibangu", "tshibangu"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRemoveDiacritics(t *testing.T) {
	if got := RemoveDiacritics("N'sele Kinshasa Présélection"); got != "N'sele Kinshasa Preselection" {
		t.Errorf("unexpected result: %q", got)
	}
}
