package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var (
	zipRegex      = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	locationRegex = regexp.MustCompile(`^[\p{L}\p{N}\s.,'#-]+$`)
)

const maxLocationLength = 64

// ValidateLocation accepts a US ZIP (12345 or 12345-6789) or a free-text city
// such as "Austin, TX". It returns the trimmed, whitespace-normalized value.
func ValidateLocation(location string) (string, error) {
	location = strings.Join(strings.Fields(location), " ")
	if location == "" {
		return "", fmt.Errorf("location is required")
	}
	if zipRegex.MatchString(location) {
		return location, nil
	}

	if len(location) > maxLocationLength {
		return "", fmt.Errorf("location must be at most %d characters", maxLocationLength)
	}
	for _, r := range location {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("location contains control characters")
		}
	}
	if !locationRegex.MatchString(location) {
		return "", fmt.Errorf("location contains invalid characters")
	}
	if strings.IndexFunc(location, unicode.IsLetter) < 0 {
		return "", fmt.Errorf("location must be a 5-digit ZIP code or a city name")
	}
	return location, nil
}

// ValidateDealerURL requires an absolute http or https URL with a host.
func ValidateDealerURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("url is malformed")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("url must use http or https")
	}
	if u.Host == "" {
		return "", fmt.Errorf("url must include a host")
	}
	return u.String(), nil
}
