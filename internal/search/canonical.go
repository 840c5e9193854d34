// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// clickIDs are per-visit identifiers that ad and mail platforms append to
// links. Together with utm_* they never change page content.
var clickIDs = map[string]bool{
	"gclid":   true,
	"dclid":   true,
	"fbclid":  true,
	"msclkid": true,
	"yclid":   true,
	"twclid":  true,
	"mc_cid":  true,
	"mc_eid":  true,
	"igshid":  true,
	"_hsenc":  true,
	"_hsmi":   true,
}

// CanonicalURL normalises raw into the deduplication key: https scheme,
// lower-case host without "www." or a default port, utm_* and click-ID
// parameters removed, remaining parameters sorted, no fragment, no
// trailing slash. A query that does not parse is kept verbatim.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("URL %q has no host", raw)
	}
	host = strings.TrimPrefix(host, "www.")
	switch port := u.Port(); {
	case port != "" && port != "80" && port != "443":
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}

	rawQuery := u.RawQuery
	if q, err := url.ParseQuery(u.RawQuery); err == nil {
		for key := range q {
			lk := strings.ToLower(key)
			if strings.HasPrefix(lk, "utm_") || clickIDs[lk] {
				q.Del(key)
			}
		}
		rawQuery = q.Encode()
	}

	out := url.URL{
		Scheme:   "https",
		Host:     host,
		Path:     strings.TrimRight(u.Path, "/"),
		RawPath:  strings.TrimRight(u.RawPath, "/"),
		RawQuery: rawQuery,
	}
	return out.String(), nil
}
