package ytdlp

import (
	"strings"

	"github.com/ytget/mediadl/internal/config"
)

// networkArgs adds proxy, cookies, user agent and rate limit flags.
// A flag-like proxy is a hard error; unsafe user agents and rate limits are dropped with a warning.
func networkArgs(r *request, a *argList) error {
	if proxy := strings.TrimSpace(r.settings.Proxy); proxy != "" {
		if isFlagLike(proxy) || strings.ContainsAny(proxy, "\r\n") {
			return configError("proxy", proxy, "cannot start with '-' or contain line breaks")
		}
		a.add(FlagProxy, proxy)
	}

	if err := cookieArgs(r, a); err != nil {
		return err
	}

	userAgentArgs(r, a)

	if limit := strings.TrimSpace(r.settings.SpeedLimit); limit != "" {
		if isFlagLike(limit) {
			warnf("ignoring speed limit %q: cannot start with '-'", limit)
		} else {
			a.add(FlagLimitRate, limit)
		}
	}
	return nil
}

// cookieArgs prefers a per-task cookie file, then the browser session, then cookies.txt
func cookieArgs(r *request, a *argList) error {
	if path := strings.TrimSpace(r.opts.Cookies); path != "" {
		if isFlagLike(path) {
			return configError("cookies", path, "cannot start with '-'")
		}
		a.add(FlagCookies, path)
		return nil
	}

	switch r.settings.CookieSource {
	case config.CookieSourceBrowser:
		browser := strings.TrimSpace(r.settings.BrowserType)
		if browser == "" {
			browser = config.DefaultBrowserType
		}
		// BROWSER[+KEYRING][:PROFILE][::CONTAINER], only the browser name is case-insensitive
		name, rest := browser, ""
		if i := strings.IndexAny(browser, "+:"); i >= 0 {
			name, rest = browser[:i], browser[i:]
		}
		name = strings.ToLower(name)
		if !supportedBrowsers[name] {
			return configError("browser", browser, "unsupported browser for cookie borrowing")
		}
		a.add(FlagCookiesFromBrowser, name+rest)
	case config.CookieSourceTxt:
		path := strings.TrimSpace(r.settings.CookiePath)
		if path == "" {
			return nil
		}
		if isFlagLike(path) {
			return configError("cookie path", path, "cannot start with '-'")
		}
		a.add(FlagCookies, path)
	case config.CookieSourceNone, "":
	default:
		return configError("cookie source", string(r.settings.CookieSource), "expected none, browser or txt")
	}
	return nil
}

func userAgentArgs(r *request, a *argList) {
	if ua := strings.TrimSpace(r.opts.UserAgent); ua != "" {
		if safeUserAgent(ua) {
			a.add(FlagUserAgent, ua)
			return
		}
		warnf("ignoring task user agent: starts with '-' or contains a line break")
	}

	if r.settings.UserAgent == config.UserAgentDisabled {
		debugf("user agent disabled by settings")
		return
	}

	ua := strings.TrimSpace(r.settings.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	if !safeUserAgent(ua) {
		warnf("ignoring user agent %q: starts with '-' or contains a line break", ua)
		return
	}
	a.add(FlagUserAgent, ua)
}

func safeUserAgent(ua string) bool {
	return !strings.HasPrefix(ua, "-") && !strings.ContainsAny(ua, "\r\n")
}
