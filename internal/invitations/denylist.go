package invitations

// disposableDomains are temporary-mail providers rejected at invite creation.
var disposableDomains = map[string]bool{
	"10minutemail.com":  true,
	"dispostable.com":   true,
	"getnada.com":       true,
	"guerrillamail.com": true,
	"maildrop.cc":       true,
	"mailinator.com":    true,
	"sharklasers.com":   true,
	"temp-mail.org":     true,
	"tempmail.com":      true,
	"throwawaymail.com": true,
	"trashmail.com":     true,
	"yopmail.com":       true,
}

// IsDisposableDomain reports whether the domain is on the denylist.
func IsDisposableDomain(domain string) bool {
	return disposableDomains[domain]
}
