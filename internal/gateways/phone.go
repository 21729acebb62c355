package gateway

import "strings"

// countryCallingCodes maps ISO 3166-1 alpha-2 billing countries to their
// international calling code.
var countryCallingCodes = map[string]string{
	"AR": "54", "AU": "61", "AT": "43", "BE": "32", "BO": "591",
	"BR": "55", "CA": "1", "CH": "41", "CL": "56", "CN": "86",
	"CO": "57", "CR": "506", "CU": "53", "CZ": "420", "DE": "49",
	"DK": "45", "DO": "1", "EC": "593", "EG": "20", "ES": "34",
	"FI": "358", "FR": "33", "GB": "44", "GR": "30", "GT": "502",
	"HN": "504", "HU": "36", "ID": "62", "IE": "353", "IL": "972",
	"IN": "91", "IT": "39", "JP": "81", "KR": "82", "MA": "212",
	"MX": "52", "MY": "60", "NG": "234", "NI": "505", "NL": "31",
	"NO": "47", "NZ": "64", "PA": "507", "PE": "51", "PH": "63",
	"PK": "92", "PL": "48", "PT": "351", "PY": "595", "RO": "40",
	"RU": "7", "SA": "966", "SE": "46", "SG": "65", "SV": "503",
	"TH": "66", "TR": "90", "TW": "886", "UA": "380", "US": "1",
	"UY": "598", "VE": "58", "VN": "84", "ZA": "27",
}

// FormatPhone normalizes a billing phone for the provider: strip everything
// but digits, then prepend the calling code resolved from the billing
// country, falling back to defaultCode. Numbers already carrying the code
// pass through unchanged.
func FormatPhone(phone, countryISO, defaultCode string) string {
	digits := keepDigits(phone)
	if digits == "" {
		return ""
	}

	code := defaultCode
	if countryISO != "" {
		if cc, ok := countryCallingCodes[strings.ToUpper(countryISO)]; ok {
			code = cc
		}
	}

	if code == "" || strings.HasPrefix(digits, code) {
		return digits
	}
	return code + strings.TrimLeft(digits, "0")
}

func keepDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
