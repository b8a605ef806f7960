package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-list-snyk/snyk"
	"github.com/aquasecurity/vuln-list-snyk/utils"
)

const lastUpdatedKey = "snyk"

var (
	targets     = flag.String("targets", "", "advisory URL list (YAML), local path or any go-getter source")
	bypassCache = flag.Bool("bypass-cache", false, "download pages even when they are cached")
	concurrency = flag.Int("concurrency", 5, "number of pages fetched in parallel")
	wait        = flag.Int("wait", 1, "seconds each worker waits between two pages")
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flag.Parse()
	now := time.Now().UTC()
	vulnListDir := utils.VulnListDir()

	if *targets == "" {
		return xerrors.New("targets must be specified")
	}

	log.Printf("output directory is %s\n", vulnListDir)

	appFs := afero.NewOsFs()
	lastUpdated, err := utils.GetLastUpdatedDate(appFs, vulnListDir, lastUpdatedKey)
	if err != nil {
		return xerrors.Errorf("failed to get last updated date: %w", err)
	}
	log.Printf("last updated: %s\n", lastUpdated.Format(time.RFC3339))

	urls, err := snyk.LoadTargets(context.Background(), *targets)
	if err != nil {
		return xerrors.Errorf("failed to load targets: %w", err)
	}

	u := snyk.NewUpdater(
		snyk.WithVulnListDir(vulnListDir),
		snyk.WithConcurrency(*concurrency),
		snyk.WithWait(*wait),
		snyk.WithBypassCache(*bypassCache),
	)
	if err = u.Update(urls); err != nil {
		return xerrors.Errorf("error in snyk.io update: %w", err)
	}

	if os.Getenv("VULN_LIST_DEBUG") != "" {
		return nil
	}

	if err = utils.SetLastUpdatedDate(appFs, vulnListDir, lastUpdatedKey, now); err != nil {
		return err
	}

	return nil
}
