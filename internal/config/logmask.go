// SPDX-License-Identifier: MIT

package config

import (
	"net/url"
	"strings"
)

const maskedValue = "***"

// RedactedView is the printable form of a resolved configuration: the file
// layout plus the credential state. APIKey is "***" when a key is set and
// empty otherwise.
type RedactedView struct {
	FileConfig `yaml:",inline"`
	APIKey     string `yaml:"apiKey"`
}

// Redacted returns cfg in its printable form. The key value never leaves
// this function.
func Redacted(cfg AppConfig) RedactedView {
	view := RedactedView{FileConfig: ToFileConfig(&cfg)}
	if cfg.Upstream.APIKey != "" {
		view.APIKey = maskedValue
	}
	return view
}

// MaskURL hides any userinfo in rawURL. Unparseable input is returned as is.
func MaskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	// url.User would percent-escape the mask, so it is spliced in after the
	// scheme separator instead.
	u.User = nil
	return strings.Replace(u.String(), "//", "//"+maskedValue+"@", 1)
}
