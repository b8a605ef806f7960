package snyk

import (
	"context"
	"os"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/aquasecurity/vuln-list-snyk/utils"
)

// Targets is the list of advisory pages to extract.
//
//	advisories:
//	  - https://snyk.io/vuln/SNYK-JAVA-ORGJBPM-31602
//	  - https://snyk.io/vuln/npm:xlsx:20180222
type Targets struct {
	Advisories []string `yaml:"advisories"`
}

// LoadTargets reads a target list from src, which may be any go-getter source
// (local path, http(s) URL, git, s3...).
func LoadTargets(ctx context.Context, src string) ([]string, error) {
	filePath, err := utils.DownloadToTempFile(ctx, src)
	if err != nil {
		return nil, xerrors.Errorf("failed to download %s: %w", src, err)
	}
	defer os.Remove(filePath)

	f, err := os.Open(filePath)
	if err != nil {
		return nil, xerrors.Errorf("file open error (%s): %w", filePath, err)
	}
	defer f.Close()

	var targets Targets
	if err = yaml.NewDecoder(f).Decode(&targets); err != nil {
		return nil, xerrors.Errorf("unable to decode YAML (%s): %w", src, err)
	}

	urls := lo.Map(targets.Advisories, func(u string, _ int) string {
		return strings.TrimSpace(u)
	})
	return lo.Uniq(lo.Compact(urls)), nil
}
