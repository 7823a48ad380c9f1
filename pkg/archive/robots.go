package archive

import (
	"context"
	"time"

	"github.com/temoto/robotstxt"

	"wparchive/pkg/logger"
	"wparchive/pkg/ratelimit"
	"wparchive/pkg/wordpress"
)

// robotsPolicy captures what a site's robots.txt says about the archive's
// crawl: whether the REST root is welcome and how fast to go.
type robotsPolicy struct {
	apiAllowed bool
	crawlDelay time.Duration
}

// permissivePolicy is used whenever robots.txt is absent or unreadable.
// Robots failures never block an archive run.
var permissivePolicy = robotsPolicy{apiAllowed: true}

// fetchRobotsPolicy retrieves and evaluates /robots.txt once per session.
// The policy is advisory: a disallowed REST root is logged, not enforced,
// since a site operator exposing /wp-json/ has already published the data.
func fetchRobotsPolicy(ctx context.Context, client *wordpress.Client, baseURL, userAgent string, log logger.Logger) robotsPolicy {
	resp, err := client.Get(ctx, baseURL+"/robots.txt")
	if err != nil {
		log.Debug("robots.txt unreachable, proceeding without a policy")
		return permissivePolicy
	}

	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		log.Debug("robots.txt unparseable, proceeding without a policy")
		return permissivePolicy
	}

	group := robots.FindGroup(userAgent)
	policy := robotsPolicy{
		apiAllowed: group.Test("/wp-json/"),
		crawlDelay: group.CrawlDelay,
	}

	if !policy.apiAllowed {
		log.WarnWithFields("robots.txt disallows the REST API root", map[string]interface{}{
			"url": baseURL + "/wp-json/",
		})
	}
	if policy.crawlDelay > 0 {
		log.InfoWithFields("honoring robots.txt crawl delay", map[string]interface{}{
			"delay": policy.crawlDelay.String(),
		})
	}

	return policy
}

// sessionLimiter builds the request pacer for one session, slowing down to
// the robots.txt crawl delay when it is stricter than the configured rate.
func sessionLimiter(requestsPerMinute int, policy robotsPolicy) ratelimit.Limiter {
	period := time.Duration(0)
	if requestsPerMinute > 0 {
		period = time.Minute / time.Duration(requestsPerMinute)
	}
	if policy.crawlDelay > period {
		period = policy.crawlDelay
	}

	if period <= 0 {
		return ratelimit.Unlimited{}
	}
	return ratelimit.NewTokenBucket(1, period)
}
