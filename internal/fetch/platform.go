package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known job board platform.
type Platform string

const (
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformWorkday is the Workday ATS platform
	PlatformWorkday Platform = "workday"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)

	if strings.Contains(host, "greenhouse.io") {
		return PlatformGreenhouse
	}
	if strings.Contains(host, "lever.co") {
		return PlatformLever
	}
	if strings.Contains(host, "workday.com") ||
		strings.Contains(host, "myworkdayjobs.com") {
		return PlatformWorkday
	}

	return PlatformUnknown
}

// ListingSelectors returns the selectors matching individual job listings on
// a board index page for a specific platform.
func ListingSelectors(platform Platform) []string {
	switch platform {
	case PlatformGreenhouse:
		return []string{
			".opening a",
			"tr.job-post a",
			".job-posts a",
		}
	case PlatformLever:
		return []string{
			".posting-title",
			".posting a.posting-btn-submit",
			"a.posting-title",
		}
	default:
		return []string{
			".job-listing a",
			".job-row a",
			".opening a",
			"li.job a",
			"a.job-link",
		}
	}
}

// LocationSelectors returns the selectors for a listing's location label,
// searched relative to the listing element's parent.
func LocationSelectors(platform Platform) []string {
	switch platform {
	case PlatformGreenhouse:
		return []string{".location", ".opening .location"}
	case PlatformLever:
		return []string{".posting-categories .location", ".sort-by-location"}
	default:
		return []string{".location", ".job-location"}
	}
}
