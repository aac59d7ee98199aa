package helpers

import "testing"

func TestFormatPriceUS(t *testing.T) {
	cases := []struct {
		price float64
		want  string
	}{
		{52500, "52,500"},
		{1000, "1,000"},
		{50.5, "50.50"},
		{1.21, "1.21"},
		{0.000123, "0.000123"},
		{0.000001, "0.00000100"},
	}

	for _, tc := range cases {
		if got := FormatPriceUS(tc.price, false); got != tc.want {
			t.Errorf("FormatPriceUS(%v) = %q, want %q", tc.price, got, tc.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{5, "+5.00%"},
		{-8, "-8.00%"},
		{0.1, "+0.10%"},
		{0, "+0.00%"},
	}

	for _, tc := range cases {
		if got := FormatPercent(tc.value); got != tc.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got := EscapeMarkdownV2("+5.00% (BTC/USD)")
	want := "\\+5\\.00% \\(BTC/USD\\)"
	if got != want {
		t.Errorf("EscapeMarkdownV2 = %q, want %q", got, want)
	}
}
