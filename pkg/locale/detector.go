package locale

import "strings"

// InferTimezoneFromPhone maps a phone number's country prefix to the
// country's default IANA timezone, falling back to DefaultTimezone for
// unknown prefixes. Slot labels and date text are interpreted in this zone.
func InferTimezoneFromPhone(phone string) string {
	if country := InferCountryFromPhone(phone); country != nil {
		return country.DefaultTimezone
	}
	return DefaultTimezone
}

// InferCountryFromPhone returns the supported country matching the phone
// number's prefix, or nil when no prefix matches.
func InferCountryFromPhone(phone string) *Country {
	normalized := strings.TrimSpace(phone)

	for _, country := range Countries {
		for _, prefix := range country.PhonePrefixes {
			if strings.HasPrefix(normalized, prefix) {
				return &country
			}
		}
	}

	return nil
}
