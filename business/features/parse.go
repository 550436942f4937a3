package features

import (
	"regexp"
	"strconv"
)

var weightPattern = regexp.MustCompile(`([0-9]+)\s?(g|ml)`)

// ParseRatio extracts a numeric ratio embedded in a free-text descriptor,
// e.g. ParseRatio("pekerja_kantoran: 0.45, mahasiswa: 0.3", "pekerja_kantoran")
// returns 0.45. It never fails: anything unparseable degrades to 0.
func ParseRatio(text, key string) float64 {
	if text == "" || key == "" {
		return 0
	}

	re, err := regexp.Compile(regexp.QuoteMeta(key) + `:\s*([0-9]*\.?[0-9]+)`)
	if err != nil {
		return 0
	}

	match := re.FindStringSubmatch(text)
	if len(match) < 2 {
		return 0
	}

	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseWeightGrams pulls a weight/volume token (grams or milliliters) out of
// a product name, e.g. "Keripik Kentang 150g" returns 150. Missing token
// returns 0.
func ParseWeightGrams(name string) float64 {
	match := weightPattern.FindStringSubmatch(name)
	if len(match) < 2 {
		return 0
	}

	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	return v
}
