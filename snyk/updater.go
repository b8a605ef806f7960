package snyk

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-list-snyk/utils"
)

const (
	snykDir            = "snyk"
	defaultConcurrency = 5
	defaultWait        = 1
)

type options struct {
	vulnListDir string
	appFs       afero.Fs
	fetcher     Fetcher
	concurrency int
	wait        int
	bypassCache bool
}

type option func(*options)

func WithVulnListDir(dir string) option {
	return func(opts *options) {
		opts.vulnListDir = dir
	}
}

func WithFs(appFs afero.Fs) option {
	return func(opts *options) {
		opts.appFs = appFs
	}
}

func WithFetcher(fetcher Fetcher) option {
	return func(opts *options) {
		opts.fetcher = fetcher
	}
}

func WithConcurrency(concurrency int) option {
	return func(opts *options) {
		opts.concurrency = concurrency
	}
}

// WithWait sets the pause, in seconds, each worker takes between two pages.
func WithWait(wait int) option {
	return func(opts *options) {
		opts.wait = wait
	}
}

func WithBypassCache(bypassCache bool) option {
	return func(opts *options) {
		opts.bypassCache = bypassCache
	}
}

type Updater struct {
	*options
	extractor Extractor
}

func NewUpdater(opts ...option) Updater {
	o := &options{
		vulnListDir: utils.VulnListDir(),
		appFs:       afero.NewOsFs(),
		concurrency: defaultConcurrency,
		wait:        defaultWait,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.fetcher == nil {
		o.fetcher = NewPageFetcher()
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}

	return Updater{
		options:   o,
		extractor: NewExtractor(o.fetcher),
	}
}

type result struct {
	url        string
	advisories []Advisory
	err        error
}

// Update extracts the advisories of every page and saves them under
// <vuln-list>/snyk/<purl type>/<purl namespace>/<purl name>/<suffix>.json.
// Pages that cannot be extracted are logged and skipped.
func (u Updater) Update(urls []string) error {
	log.Printf("Fetching snyk.io advisories (%d pages)", len(urls))

	results := u.extractAll(urls)

	var saved, skipped int
	for _, res := range results {
		if res.err != nil {
			log.Printf("skip %s: %s", res.url, res.err)
			skipped++
		}
		for _, adv := range res.advisories {
			if err := u.save(adv); err != nil {
				return xerrors.Errorf("save error: %w", err)
			}
			saved++
		}
	}

	if len(urls) > 0 && saved == 0 {
		return xerrors.Errorf("no advisory could be extracted from %d pages", len(urls))
	}
	log.Printf("saved %d advisories, skipped %d pages", saved, skipped)
	return nil
}

// extractAll returns the extraction results in the order of urls.
func (u Updater) extractAll(urls []string) []result {
	results := make([]result, len(urls))

	bar := pb.StartNew(len(urls))
	var wg sync.WaitGroup
	tasks := utils.GenWorkers(u.concurrency, u.wait)
	for i, url := range urls {
		wg.Add(1)
		tasks <- func() {
			defer wg.Done()
			advisories, err := u.extractor.Extract(url, u.bypassCache, nil)
			results[i] = result{url: url, advisories: advisories, err: err}
			bar.Increment()
		}
	}
	close(tasks)
	wg.Wait()
	bar.Finish()

	return results
}

func (u Updater) save(adv Advisory) error {
	purl := adv.PackageURL()
	_, suffix := splitLast(adv.ID, ":")

	dir := filepath.Join(u.vulnListDir, snykDir, purl.Type, filepath.FromSlash(purl.Namespace), filepath.FromSlash(purl.Name))
	filePath := filepath.Join(dir, fmt.Sprintf("%s.json", suffix))

	root := filepath.Join(u.vulnListDir, snykDir)
	if rel, err := filepath.Rel(root, filePath); err != nil || !filepath.IsLocal(rel) {
		return xerrors.Errorf("%s escapes %s", filePath, root)
	}
	if err := utils.NewFs(u.appFs).WriteJSON(filePath, adv); err != nil {
		return xerrors.Errorf("unable to write JSON (%s): %w", filePath, err)
	}
	return nil
}
