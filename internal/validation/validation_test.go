package validation

import (
	"strings"
	"testing"
)

func TestValidateLocation(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{"zip", "90210", "90210", ""},
		{"zipPlus4", "90210-1234", "90210-1234", ""},
		{"city", "  Austin,   TX ", "Austin, TX", ""},
		{"accented", "San José", "San José", ""},
		{"empty", "   ", "", "location is required"},
		{"shortZip", "9021", "", "location must be a 5-digit ZIP code or a city name"},
		{"tooLong", strings.Repeat("a", 65), "", "location must be at most 64 characters"},
		{"markup", "<script>", "", "location contains invalid characters"},
		{"control", "Austin\x00", "", "location contains control characters"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateLocation(tc.input)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if got != tc.want {
					t.Fatalf("expected %q, got %q", tc.want, got)
				}
				return
			}
			if err == nil || err.Error() != tc.wantErr {
				t.Fatalf("expected error %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateDealerURL(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"https", "https://downtowntoyota.example/used-inventory", ""},
		{"http", " http://dealer.example ", ""},
		{"empty", "", "url is required"},
		{"relative", "/inventory", "url must use http or https"},
		{"ftp", "ftp://dealer.example", "url must use http or https"},
		{"noHost", "https://", "url must include a host"},
		{"malformed", "http://[::1", "url is malformed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateDealerURL(tc.input)
			if tc.wantErr == "" && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tc.wantErr != "" && (err == nil || err.Error() != tc.wantErr) {
				t.Fatalf("expected error %q, got %v", tc.wantErr, err)
			}
		})
	}
}
