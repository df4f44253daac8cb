package ui

import (
	"strings"
)

const bannerArt = ` /$$$$$$$$                      /$$$$$$
| $$_____/                     /$$__  $$
| $$       /$$   /$$  /$$$$$$ | $$  \__/  /$$$$$$  /$$   /$$
| $$$$$   | $$  | $$ /$$__  $$|  $$$$$$  /$$__  $$| $$  | $$
| $$__/   | $$  | $$| $$$$$$$$ \____  $$| $$  \ $$| $$  | $$
| $$      | $$  | $$| $$_____/ /$$  \ $$| $$  | $$| $$  | $$
| $$$$$$$$|  $$$$$$$|  $$$$$$$|  $$$$$$/| $$$$$$$/|  $$$$$$$
|________/ \____  $$ \_______/ \______/ | $$____/  \____  $$
           /$$  | $$                    | $$       /$$  | $$
          |  $$$$$$/                    | $$      |  $$$$$$/
           \______/                     |__/       \______/`

// Banner returns the framed banner with the version tagline.
func Banner(version string) string {
	tagline := "EyeSpy Network Auditor"
	if version != "" {
		tagline += " " + version
	}
	var b strings.Builder
	b.WriteString(bannerArt)
	b.WriteString("\n\n")
	b.WriteString(TaglineStyle.Render(tagline))
	return BannerStyle.Render(b.String())
}
