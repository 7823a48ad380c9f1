package archive

import (
	"regexp"
	"strings"

	errs "wparchive/pkg/errors"
)

// maxDomainLength is the DNS limit on a full domain name.
const maxDomainLength = 253

var (
	domainPattern      = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*$`)
	ipv4Pattern        = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	bracketedV6Pattern = regexp.MustCompile(`^\[[0-9a-f:]+\]$`)
	portPattern        = regexp.MustCompile(`^\d{1,5}$`)
)

// ValidateDomain normalizes user input into a bare hostname and rejects
// anything that could not be one. Accepted forms are domain names, single
// labels like "localhost", dotted IPv4, and bracketed IPv6. Validation runs
// before any network activity so a typo fails instantly.
func ValidateDomain(input string) (string, error) {
	domain := strings.ToLower(strings.TrimSpace(input))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimRight(domain, "/")

	if domain == "" {
		return "", errs.NewDomainValidation(input, "empty domain")
	}
	if len(domain) > maxDomainLength {
		return "", errs.NewDomainValidation(input, "domain exceeds 253 characters")
	}
	if strings.Contains(domain, "..") {
		return "", errs.NewDomainValidation(input, "domain contains adjacent dots")
	}
	if strings.Contains(domain, "/") {
		return "", errs.NewDomainValidation(input, "domain must not contain a path")
	}

	host, port := splitPort(domain)
	if port != "" && !portPattern.MatchString(port) {
		return "", errs.NewDomainValidation(input, "invalid port")
	}

	if domainPattern.MatchString(host) || ipv4Pattern.MatchString(host) || bracketedV6Pattern.MatchString(host) {
		return domain, nil
	}

	return "", errs.NewDomainValidation(input, "not a valid domain name or IP address")
}

// splitPort separates an optional :port suffix. Bracketed IPv6 hosts keep
// their brackets.
func splitPort(domain string) (host, port string) {
	if strings.HasPrefix(domain, "[") {
		end := strings.Index(domain, "]")
		if end == -1 {
			return domain, ""
		}
		host = domain[:end+1]
		rest := domain[end+1:]
		if strings.HasPrefix(rest, ":") {
			return host, rest[1:]
		}
		if rest != "" {
			return domain, ""
		}
		return host, ""
	}

	idx := strings.LastIndex(domain, ":")
	if idx == -1 {
		return domain, ""
	}
	return domain[:idx], domain[idx+1:]
}
