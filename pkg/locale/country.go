package locale

const (
	DefaultTimezone = "America/Sao_Paulo"
)

type Country struct {
	Code            string   // ISO 3166-1 alpha-2 country code (e.g., "BR", "PT")
	Name            string   // Human-readable country name
	PhonePrefixes   []string // Valid phone number prefixes (e.g., ["+55", "55"])
	DefaultTimezone string   // IANA timezone identifier (e.g., "America/Sao_Paulo")
}

var Countries = map[string]Country{
	"BR": {
		Code:            "BR",
		Name:            "Brazil",
		PhonePrefixes:   []string{"+55", "55"},
		DefaultTimezone: "America/Sao_Paulo",
	},
	"PT": {
		Code:            "PT",
		Name:            "Portugal",
		PhonePrefixes:   []string{"+351", "351"},
		DefaultTimezone: "Europe/Lisbon",
	},
	"US": {
		Code:            "US",
		Name:            "United States",
		PhonePrefixes:   []string{"+1", "1"},
		DefaultTimezone: "America/New_York",
	},
}
