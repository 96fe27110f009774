package extract

import (
	"strings"
	"testing"
)

func intValue(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func TestExtractFieldsFullListing(t *testing.T) {
	f := ExtractFields("2020 Toyota Camry $15,000 45,000 miles")

	if v, ok := intValue(f.Year); !ok || v != 2020 {
		t.Fatalf("year = %v, want 2020", f.Year)
	}
	if v, ok := intValue(f.Price); !ok || v != 15000 {
		t.Fatalf("price = %v, want 15000", f.Price)
	}
	if v, ok := intValue(f.Mileage); !ok || v != 45000 {
		t.Fatalf("mileage = %v, want 45000", f.Mileage)
	}
	if !f.Complete() {
		t.Fatal("expected complete fields")
	}
}

func TestExtractFieldsAreIndependent(t *testing.T) {
	inputs := []string{
		"2020 Toyota Camry $15,000 45,000 miles",
		"Certified 1998 Jeep Wrangler only 120,500 Miles $4,999.95 call today",
		"$22,100 2015 Ford F-150 98,000 miles",
	}

	for _, in := range inputs {
		with := ExtractFields(in)
		priceText := priceRegex.FindString(in)
		if priceText == "" {
			t.Fatalf("fixture %q has no price", in)
		}
		without := ExtractFields(strings.Replace(in, priceText, "", 1))

		if without.Price != nil {
			t.Fatalf("expected no price after removal in %q", in)
		}
		if *with.Year != *without.Year {
			t.Fatalf("year changed after removing price in %q", in)
		}
		if *with.Mileage != *without.Mileage {
			t.Fatalf("mileage changed after removing price in %q", in)
		}
	}
}

func TestExtractFieldsEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		year    *int
		price   *int
		mileage *int
	}{
		{name: "empty", text: ""},
		{name: "cents truncated", text: "$1,234.56", price: ptr(1234)},
		{name: "year outside 19xx/20xx", text: "built 1899 or 2199"},
		{name: "year inside longer number", text: "stock 21000"},
		{name: "loose year accepted", text: "model 2099", year: ptr(2099)},
		{name: "mileage case-insensitive", text: "12,345 MILES", mileage: ptr(12345)},
		{name: "first match wins", text: "2001 then 2002 $5 then $6", year: ptr(2001), price: ptr(5)},
		{name: "price overflow dropped", text: "$999,999,999,999,999,999,999"},
		{name: "no space before miles", text: "45,000miles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ExtractFields(tt.text)
			assertField(t, "year", f.Year, tt.year)
			assertField(t, "price", f.Price, tt.price)
			assertField(t, "mileage", f.Mileage, tt.mileage)
		})
	}
}

func TestFieldsCompleteRequiresAllThree(t *testing.T) {
	f := ExtractFields("2019 Honda Civic 30,000 miles")
	if f.Complete() {
		t.Fatal("fields without price must not be complete")
	}
	if f.Year == nil || f.Mileage == nil {
		t.Fatalf("expected year and mileage, got %+v", f)
	}
}

func ptr(v int) *int { return &v }

func assertField(t *testing.T, name string, got, want *int) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Fatalf("%s = %d, want absent", name, *got)
	case want != nil && got == nil:
		t.Fatalf("%s absent, want %d", name, *want)
	case want != nil && *got != *want:
		t.Fatalf("%s = %d, want %d", name, *got, *want)
	}
}
