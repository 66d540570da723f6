package main

import (
	"os"
	_ "time/tzdata" // SITE_TIMEZONE must resolve on minimal images

	"kalaklub-site/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
