// Package balance renders wallet balances for display.
//
// Crypto balances span many orders of magnitude, so a confirmed/unconfirmed
// pair is scaled together under one magnitude prefix (m or μ) chosen from the
// larger of the two values. Fiat balances are never prefixed.
package balance

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// Currency identifies the unit a balance is denominated in.
type Currency string

// Supported currencies.
const (
	CurrencyECA Currency = "ECA"
	CurrencyBTC Currency = "BTC"
	CurrencyUSD Currency = "USD"
)

// IsFiat reports whether the currency uses the fiat formatting rules.
func (c Currency) IsFiat() bool {
	return c == CurrencyUSD
}

// Prefix is a magnitude indicator applied to both values of a pair.
type Prefix string

// Magnitude prefixes.
const (
	PrefixNone  Prefix = ""
	PrefixMilli Prefix = "m"
	PrefixMicro Prefix = "μ"
)

// Display strings.
const (
	// Floor is shown for values too small to render meaningfully.
	Floor = "~0.00"
	// PlaceholderFiat is shown instead of fiat values while loading.
	PlaceholderFiat = "-.--"
	// PlaceholderCrypto is shown instead of crypto values while loading.
	PlaceholderCrypto = "-.-----"
)

const (
	oneThousand  = 1_000
	oneMillion   = 1_000_000
	oneCent      = 0.01
	oneMilliCent = 0.000_01
	cryptoFloor  = 0.000_001

	groupedFormat     = "#,###.#####"
	abbreviatedFormat = "#,###.##"
)

// Display is a magnitude-consistent rendering of a balance pair.
type Display struct {
	Confirmed   string
	Unconfirmed string
	Prefix      Prefix
}

// Unit returns the currency label with the pair's prefix, e.g. "mBTC".
func (d Display) Unit(c Currency) string {
	return string(d.Prefix) + string(c)
}

// Placeholder returns the string a caller shows while balances are loading.
func Placeholder(c Currency) string {
	if c.IsFiat() {
		return PlaceholderFiat
	}
	return PlaceholderCrypto
}

// magnitude is one row of the prefix table.
type magnitude struct {
	min    float64 // inclusive lower bound on the larger balance
	factor float64
	prefix Prefix
}

// magnitudes is evaluated top-down; the first row whose min is reached wins.
// Anything below the last row (including negative and NaN maxima) is micro.
var magnitudes = []magnitude{
	{min: oneCent, factor: 1, prefix: PrefixNone},
	{min: oneMilliCent, factor: oneThousand, prefix: PrefixMilli},
}

var micro = magnitude{factor: oneMillion, prefix: PrefixMicro}

// pickMagnitude selects the scale for a pair from its larger value.
// A zero maximum is rendered unscaled.
func pickMagnitude(larger float64) magnitude {
	if larger == 0 {
		return magnitudes[0]
	}
	for _, m := range magnitudes {
		if larger >= m.min {
			return m
		}
	}
	return micro
}

// Format renders a confirmed/unconfirmed pair in the given currency.
// It never fails: values that cannot be displayed resolve to Floor.
func Format(confirmed, unconfirmed float64, c Currency) Display {
	if c.IsFiat() {
		return Display{
			Confirmed:   formatFiat(confirmed),
			Unconfirmed: formatFiat(unconfirmed),
			Prefix:      PrefixNone,
		}
	}

	m := pickMagnitude(math.Max(confirmed, unconfirmed))
	return Display{
		Confirmed:   formatCrypto(confirmed, m.factor),
		Unconfirmed: formatCrypto(unconfirmed, m.factor),
		Prefix:      m.prefix,
	}
}

func formatFiat(v float64) string {
	if (v != 0 && v < oneCent) || !finite(v) {
		return Floor
	}
	return strings.ToUpper(abbreviate(v))
}

// formatCrypto scales v by factor for rendering. The floor check is made on
// the unscaled value, so a tiny value next to a larger sibling is floored even
// when the sibling's prefix would have made it visible.
func formatCrypto(v, factor float64) string {
	scaled := v * factor
	if (v != 0 && v < cryptoFloor) || !finite(scaled) {
		return Floor
	}
	formatted := humanize.FormatFloat(groupedFormat, scaled)
	if scaled >= oneThousand {
		formatted = abbreviate(scaled)
	}
	return strings.ToUpper(formatted)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// suffixes are ordered from smallest to largest unit.
var suffixes = []struct {
	unit   float64
	suffix string
}{
	{1e3, "k"},
	{1e6, "m"},
	{1e9, "b"},
	{1e12, "t"},
}

// abbreviate renders v with two decimals and a compact unit suffix.
// When rounding carries the mantissa to 1000 the next unit is used instead,
// so 999999.999 renders as 1.00m rather than 1,000.00k.
func abbreviate(v float64) string {
	abs := math.Abs(v)
	idx := -1
	for i := len(suffixes) - 1; i >= 0; i-- {
		if abs >= suffixes[i].unit {
			idx = i
			break
		}
	}
	if idx < 0 {
		return humanize.FormatFloat(abbreviatedFormat, v)
	}

	if idx < len(suffixes)-1 && abs/suffixes[idx].unit+0.005 >= oneThousand {
		idx++
	}
	s := suffixes[idx]
	return humanize.FormatFloat(abbreviatedFormat, v/s.unit) + s.suffix
}
