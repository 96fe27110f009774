package discovery

import "strings"

// MatchBrand returns the first brand contained in name, ignoring case.
func MatchBrand(name string, brands []string) (string, bool) {
	lower := strings.ToLower(name)
	for _, brand := range brands {
		if brand == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(brand)) {
			return brand, true
		}
	}
	return "", false
}
