package scrape

import (
	"net/http"
	"strings"
)

// BlockType names the anti-bot wall a page sits behind.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockFirewall   BlockType = "firewall"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

type blockSignature struct {
	kind   BlockType
	needle string
	under  int // only matches text shorter than this many bytes; 0 matches any length
}

// Club sites are mostly fronted by Cloudflare, Sucuri or Incapsula. Short
// interstitials are matched by phrases that real pages also use, so those
// signatures carry a length cap.
var blockSignatures = []blockSignature{
	{BlockCloudflare, "checking your browser", 0},
	{BlockCloudflare, "cf-browser-verification", 0},
	{BlockCloudflare, "just a moment", 1000},
	{BlockCloudflare, "attention required", 1000},
	{BlockFirewall, "sucuri website firewall", 0},
	{BlockFirewall, "incapsula incident", 0},
	{BlockFirewall, "access denied", 1000},
	{BlockFirewall, "403 forbidden", 1000},
	{BlockCaptcha, "captcha", 0},
	{BlockJSShell, "enable javascript", 2000},
	{BlockJSShell, "please enable cookies", 1000},
	{BlockJSShell, `meta http-equiv="refresh"`, 2000},
}

// DetectBlock reports the wall a fetched page hit, or BlockNone. Response
// headers are consulted only for 403 and 503 statuses.
func DetectBlock(status int, header http.Header, body []byte) BlockType {
	if status == http.StatusForbidden || status == http.StatusServiceUnavailable {
		switch {
		case header.Get("cf-ray") != "", header.Get("cf-cache-status") != "",
			strings.EqualFold(header.Get("server"), "cloudflare"):
			return BlockCloudflare
		case header.Get("x-sucuri-id") != "", header.Get("x-iinfo") != "":
			return BlockFirewall
		}
	}
	return matchBlockText(string(body))
}

// matchBlockText checks page text (HTML or reader markdown) against the
// known interstitial signatures.
func matchBlockText(text string) BlockType {
	lower := strings.ToLower(text)
	for _, sig := range blockSignatures {
		if sig.under > 0 && len(text) >= sig.under {
			continue
		}
		if strings.Contains(lower, sig.needle) {
			return sig.kind
		}
	}
	if len(text) < 1000 && strings.Contains(lower, "cloudflare") {
		return BlockCloudflare
	}
	return BlockNone
}
