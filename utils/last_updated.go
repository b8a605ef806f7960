package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

const (
	lastUpdatedFile = "last_updated.json"
)

type LastUpdated map[string]time.Time

func GetLastUpdatedDate(appFs afero.Fs, vulnListDir, dist string) (time.Time, error) {
	lastUpdated, err := getLastUpdatedDate(appFs, vulnListDir)
	if err != nil {
		return time.Time{}, err
	}

	t, ok := lastUpdated[dist]
	if !ok {
		return time.Unix(0, 0), nil
	}

	return t, nil
}

func getLastUpdatedDate(appFs afero.Fs, vulnListDir string) (LastUpdated, error) {
	lastUpdated := LastUpdated{}
	filePath := filepath.Join(vulnListDir, lastUpdatedFile)
	if _, err := appFs.Stat(filePath); os.IsNotExist(err) {
		return lastUpdated, nil
	}

	f, err := appFs.Open(filePath)
	if err != nil {
		return nil, xerrors.Errorf("unable to open %s: %w", filePath, err)
	}
	defer f.Close()

	if err = json.NewDecoder(f).Decode(&lastUpdated); err != nil {
		return nil, xerrors.Errorf("failed to decode %s: %w", filePath, err)
	}

	return lastUpdated, nil
}

func SetLastUpdatedDate(appFs afero.Fs, vulnListDir, dist string, lastUpdatedDate time.Time) error {
	lastUpdated, err := getLastUpdatedDate(appFs, vulnListDir)
	if err != nil {
		return xerrors.Errorf("failed to get last updated date: %w", err)
	}
	lastUpdated[dist] = lastUpdatedDate

	if err = NewFs(appFs).WriteJSON(filepath.Join(vulnListDir, lastUpdatedFile), lastUpdated); err != nil {
		return xerrors.Errorf("failed to write last updated date: %w", err)
	}

	return nil
}
