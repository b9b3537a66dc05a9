package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Keys read by OverlayEnv. Each maps to a JOETRACKER_* variable with dots
// and dashes replaced by underscores, or to a CLI flag bound under the
// same name.
const (
	KeyDataDir      = "data-dir"
	KeyPort         = "port"
	KeyDBFile       = "db-file"
	KeyFetchEnabled = "fetch.enabled"
	KeyFetchBaseURL = "fetch.base-url"
	KeyFetchYears   = "fetch.years"
	KeyFetchRobots  = "fetch.respect-robots"
	KeySiteOutDir   = "site.out-dir"
	KeyCacheTTL     = "cache.ttl-seconds"
	KeyUserAgent    = "fetch.user-agent"
	EnvPrefix       = "JOETRACKER"
)

// NewViper returns a viper instance reading JOETRACKER_* variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range []string{
		KeyDataDir, KeyPort, KeyDBFile, KeyFetchEnabled, KeyFetchBaseURL,
		KeyFetchYears, KeyFetchRobots, KeySiteOutDir, KeyCacheTTL, KeyUserAgent,
	} {
		_ = v.BindEnv(k)
	}
	return v
}

// OverlayEnv applies flag and environment overrides on top of cfg.
func OverlayEnv(cfg *Config, v *viper.Viper) {
	if v == nil {
		return
	}
	if s := v.GetString(KeyDataDir); s != "" {
		cfg.App.DataDir = s
	}
	if v.IsSet(KeyPort) && v.GetInt(KeyPort) > 0 {
		cfg.App.Port = v.GetInt(KeyPort)
	}
	if s := v.GetString(KeyDBFile); s != "" {
		cfg.App.DBFile = s
	}
	if v.IsSet(KeyFetchEnabled) {
		cfg.Fetch.Enabled = v.GetBool(KeyFetchEnabled)
	}
	if s := v.GetString(KeyFetchBaseURL); s != "" {
		cfg.Fetch.BaseURL = s
	}
	if s := v.GetString(KeyUserAgent); s != "" {
		cfg.Fetch.UserAgent = s
	}
	if v.IsSet(KeyFetchRobots) {
		cfg.Fetch.RespectRobots = v.GetBool(KeyFetchRobots)
	}
	if years := parseYears(v.GetString(KeyFetchYears)); len(years) > 0 {
		cfg.Fetch.Years = years
	}
	if s := v.GetString(KeySiteOutDir); s != "" {
		cfg.Site.OutDir = s
	}
	if v.IsSet(KeyCacheTTL) {
		cfg.Cache.TTLSeconds = v.GetInt(KeyCacheTTL)
	}
}

// parseYears reads "2023,2024" or "2019-2024".
func parseYears(s string) []int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		a, err1 := strconv.Atoi(strings.TrimSpace(lo))
		b, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil || a > b {
			return nil
		}
		var out []int
		for y := a; y <= b; y++ {
			out = append(out, y)
		}
		return out
	}
	var out []int
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		if y, err := strconv.Atoi(part); err == nil {
			out = append(out, y)
		}
	}
	return out
}
