package quality

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// wellFormed is the general URL pattern a link must match in addition to the
// scheme and host checks.
var wellFormed = regexp.MustCompile(`^https?://[A-Za-z0-9.-]+(?::\d+)?(?:/\S*)?$`)

// reputableSuffixes accept government, military, education and nonprofit
// hosts without an explicit outlet entry.
var reputableSuffixes = []string{".gov", ".mil", ".edu", ".org"}

// DefaultOutlets is the built-in allowlist of recognized outlets. Callers
// can extend or replace it via Options.ReputableOutlets.
var DefaultOutlets = []string{
	"reuters.com",
	"apnews.com",
	"bbc.com",
	"bbc.co.uk",
	"nytimes.com",
	"washingtonpost.com",
	"theguardian.com",
	"bloomberg.com",
	"wsj.com",
	"ft.com",
	"economist.com",
	"nature.com",
	"science.org",
}

// LinkValidator checks source links against the citation policy: secure
// scheme, well-formed URL, reputable host. Verdicts are cached with a TTL so
// a link repeated across claims validates once per run window.
type LinkValidator struct {
	outlets map[string]bool
	cache   *gocache.Cache
}

// NewLinkValidator creates a validator with the given outlet allowlist
// (DefaultOutlets when nil) and cache TTL.
func NewLinkValidator(outlets []string, ttl time.Duration) *LinkValidator {
	if outlets == nil {
		outlets = DefaultOutlets
	}
	set := make(map[string]bool, len(outlets))
	for _, o := range outlets {
		set[strings.ToLower(o)] = true
	}
	// No cleanup interval: a janitor goroutine would outlive the validator,
	// and Get already treats expired verdicts as absent.
	return &LinkValidator{
		outlets: set,
		cache:   gocache.New(ttl, 0),
	}
}

// Valid reports whether the link passes all checks: https-only scheme,
// general well-formed URL pattern, and a reputable host.
func (v *LinkValidator) Valid(link string) bool {
	if verdict, ok := v.cache.Get(link); ok {
		return verdict.(bool)
	}
	verdict := v.check(link)
	v.cache.Set(link, verdict, gocache.DefaultExpiration)
	return verdict
}

func (v *LinkValidator) check(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	if u.Scheme != "https" {
		return false
	}
	if !wellFormed.MatchString(strings.TrimSpace(link)) {
		return false
	}
	return v.reputableHost(strings.ToLower(u.Hostname()))
}

func (v *LinkValidator) reputableHost(host string) bool {
	if host == "" {
		return false
	}
	for _, suffix := range reputableSuffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	for outlet := range v.outlets {
		if host == outlet || strings.HasSuffix(host, "."+outlet) {
			return true
		}
	}
	return false
}
