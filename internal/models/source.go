package models

// Signup sources accepted by the waitlist.
const (
	SourceWebsite  = "website"
	SourceMobile   = "mobile"
	SourceSocial   = "social"
	SourceReferral = "referral"
	SourceAPI      = "api"
)

// AllowedSources lists every accepted source tag in a stable order.
var AllowedSources = []string{SourceWebsite, SourceMobile, SourceSocial, SourceReferral, SourceAPI}

// IsAllowedSource reports whether s is one of AllowedSources.
func IsAllowedSource(s string) bool {
	for _, allowed := range AllowedSources {
		if s == allowed {
			return true
		}
	}
	return false
}

// SourceCount is a (source, count) aggregate row.
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}
