package cmd

import (
	"fmt"
)

// Version is the release version stamped into banners.
const Version = "1.0.0"

const banner = `
   _____           _   _
  / ____|         | | (_)
 | |  __  ___  ___| |_ _  ___  _ __
 | | |_ |/ _ \/ __| __| |/ _ \| '_ \
 | |__| |  __/\__ \ |_| | (_) | | | |
  \_____|\___||___/\__|_|\___/|_| |_|

`

func printBanner(service string) {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  %s - Version %s\x1b[0m\n\n", service, Version)
}
