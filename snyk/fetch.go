package snyk

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-list-snyk/utils"
)

const (
	pageCacheDir = "pages"
	fetchRetry   = 3
)

type fetcherOptions struct {
	cacheDir string
	appFs    afero.Fs
	retry    int
}

type fetcherOption func(*fetcherOptions)

func WithCacheDir(dir string) fetcherOption {
	return func(opts *fetcherOptions) {
		opts.cacheDir = dir
	}
}

func WithCacheFs(appFs afero.Fs) fetcherOption {
	return func(opts *fetcherOptions) {
		opts.appFs = appFs
	}
}

func WithRetry(retry int) fetcherOption {
	return func(opts *fetcherOptions) {
		opts.retry = retry
	}
}

// PageFetcher downloads advisory pages and keeps a gzip copy of each page in a
// cache directory.
type PageFetcher struct {
	*fetcherOptions
}

func NewPageFetcher(opts ...fetcherOption) PageFetcher {
	o := &fetcherOptions{
		cacheDir: filepath.Join(utils.CacheDir(), snykDir, pageCacheDir),
		appFs:    afero.NewOsFs(),
		retry:    fetchRetry,
	}
	for _, opt := range opts {
		opt(o)
	}
	return PageFetcher{fetcherOptions: o}
}

func (f PageFetcher) Fetch(url string, bypassCache bool) (*goquery.Document, error) {
	cachePath := f.cachePath(url)
	if !bypassCache {
		if page, err := f.readCache(cachePath); err == nil {
			return parsePage(url, page)
		} else if !os.IsNotExist(err) {
			log.Printf("ignoring broken page cache %s: %s", cachePath, err)
		}
	}

	page, err := utils.FetchURL(url, "", f.retry)
	if err != nil {
		return nil, xerrors.Errorf("%s: %v: %w", url, err, ErrFetch)
	}
	if err = f.writeCache(cachePath, page); err != nil {
		return nil, xerrors.Errorf("unable to cache %s: %v: %w", url, err, ErrFetch)
	}
	return parsePage(url, page)
}

func (f PageFetcher) cachePath(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:])+".html.gz")
}

func (f PageFetcher) readCache(path string) ([]byte, error) {
	file, err := f.appFs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, err := gzip.NewReader(file)
	if err != nil {
		return nil, xerrors.Errorf("failed to decompress: %w", err)
	}
	defer r.Close()

	return io.ReadAll(r)
}

func (f PageFetcher) writeCache(path string, page []byte) error {
	if err := f.appFs.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return xerrors.Errorf("failed to mkdir: %w", err)
	}

	file, err := f.appFs.Create(path)
	if err != nil {
		return xerrors.Errorf("unable to open a file: %w", err)
	}
	defer file.Close()

	w := gzip.NewWriter(file)
	if _, err = w.Write(page); err != nil {
		return xerrors.Errorf("failed to compress: %w", err)
	}
	if err = w.Close(); err != nil {
		return xerrors.Errorf("failed to flush: %w", err)
	}
	return nil
}

func parsePage(url string, page []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, xerrors.Errorf("unable to parse %s: %v: %w", url, err, ErrParse)
	}
	return doc, nil
}
