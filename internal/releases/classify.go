package releases

import "strings"

// Platform is the display classification of a release asset.
type Platform struct {
	OS   string
	Icon string
}

// GenericPlatform is used when no rule matches.
var GenericPlatform = Platform{OS: "Generic", Icon: "ri-download-2-line"}

type classificationRule struct {
	substrings []string
	platform   Platform
}

// Rules are tried in order against the lowercased filename; first match wins.
var classificationRules = []classificationRule{
	{[]string{"windows"}, Platform{OS: "Windows", Icon: "ri-window-fill"}},
	{[]string{"macos", ".dmg"}, Platform{OS: "macOS", Icon: "ri-apple-fill"}},
	{[]string{"linux", ".appimage", ".deb", ".rpm"}, Platform{OS: "Linux", Icon: "ri-ubuntu-fill"}},
	{[]string{"android", ".apk"}, Platform{OS: "Android", Icon: "ri-android-fill"}},
	{[]string{"ios", ".ipa"}, Platform{OS: "iOS", Icon: "ri-apple-fill"}},
}

// Classify maps an asset filename to its platform.
func Classify(filename string) Platform {
	lower := strings.ToLower(filename)
	for _, rule := range classificationRules {
		for _, s := range rule.substrings {
			if strings.Contains(lower, s) {
				return rule.platform
			}
		}
	}
	return GenericPlatform
}
