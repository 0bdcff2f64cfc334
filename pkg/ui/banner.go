package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/parascan/parascan/pkg/defaults"
)

const bannerArt = `

    ____  ____ __________ _______________ _____
   / __ \/ __ ` + "`" + `/ ___/ __ ` + "`" + `/ ___/ ___/ __ ` + "`" + `/ __ \
  / /_/ / /_/ / /  / /_/ (__  ) /__/ /_/ / / / /
 / .___/\__,_/_/   \__,_/____/\___/\__,_/_/ /_/
/_/
`

const bannerSeparator = "________________________________________________"

// PrintBanner writes the application banner to stderr.
func PrintBanner() {
	if IsSilent() {
		return
	}
	for _, line := range strings.Split(bannerArt, "\n") {
		if line != "" {
			fmt.Fprintln(os.Stderr, BannerStyle.Render(line))
		}
	}
	fmt.Fprintln(os.Stderr, "        "+VersionStyle.Render("v"+defaults.Version))
	fmt.Fprintln(os.Stderr, BracketStyle.Render(bannerSeparator))
	fmt.Fprintln(os.Stderr)
}

// PrintConfig writes one aligned label/value line to stderr.
func PrintConfig(label, value string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(os.Stderr, "  %s %s\n",
		ConfigLabelStyle.Render(label+":"),
		ConfigValueStyle.Render(value))
}
