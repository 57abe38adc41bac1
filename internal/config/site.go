package config

import "strings"

// SiteConfig holds request settings for a single host.
type SiteConfig struct {
	// Cookie is sent as the Cookie header.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra request headers for this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global User-Agent for this host.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// SiteFor returns the settings for a host, merging the site entry over the
// defaults. Hosts are matched case-insensitively and a leading "www." is
// ignored when there is no exact entry.
func (f *File) SiteFor(host string) SiteConfig {
	result := SiteConfig{
		Cookie:    f.Defaults.Cookie,
		UserAgent: f.Defaults.UserAgent,
	}
	if len(f.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(f.Defaults.Headers))
		for k, v := range f.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	site, ok := f.lookupSite(host)
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	return result
}

// lookupSite finds the site entry for a host.
func (f *File) lookupSite(host string) (SiteConfig, bool) {
	host = strings.ToLower(host)
	for _, candidate := range []string{host, strings.TrimPrefix(host, "www.")} {
		for name, site := range f.Sites {
			if strings.ToLower(name) == candidate {
				return site, true
			}
		}
	}
	return SiteConfig{}, false
}
