package wordpress

import (
	"context"
	"net/http"

	"DigiiBuz/internal/domain"
)

// Probe detects the custom content type. It never fails: any network error
// counts as "absent" and yields the standard target.
func (c *Client) Probe(ctx context.Context, site string, auth domain.Credentials, fallback domain.ContentPath) domain.Target {
	if !c.exists(ctx, site, domain.CustomTaxonomy, auth) {
		c.debug("custom taxonomy absent", "site", site, "fallback", fallback)
		return domain.StandardTarget(fallback)
	}

	for _, path := range []domain.ContentPath{domain.PathCustom, domain.PathCustomAlt} {
		if c.exists(ctx, site, string(path), auth) {
			c.debug("custom content type detected", "site", site, "path", path)
			return domain.CustomTarget(path)
		}
	}

	c.debug("custom taxonomy without content type", "site", site, "fallback", fallback)
	return domain.StandardTarget(fallback)
}

func (c *Client) exists(ctx context.Context, site, resource string, auth domain.Credentials) bool {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ProbeTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodHead, domain.RESTURL(site, resource), site, nil, auth)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.debug("probe failed", "resource", resource, "error", err)
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode != http.StatusNotFound
}
