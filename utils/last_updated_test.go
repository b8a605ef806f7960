package utils_test

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/vuln-list-snyk/utils"
)

func TestLastUpdatedDate(t *testing.T) {
	appFs := afero.NewMemMapFs()

	got, err := utils.GetLastUpdatedDate(appFs, "/vuln-list", "snyk")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(0, 0), got)

	first := time.Date(2018, 2, 22, 10, 0, 0, 0, time.UTC)
	require.NoError(t, utils.SetLastUpdatedDate(appFs, "/vuln-list", "snyk", first))
	require.NoError(t, utils.SetLastUpdatedDate(appFs, "/vuln-list", "ghsa", first.Add(time.Hour)))

	got, err = utils.GetLastUpdatedDate(appFs, "/vuln-list", "snyk")
	require.NoError(t, err)
	assert.True(t, first.Equal(got))

	got, err = utils.GetLastUpdatedDate(appFs, "/vuln-list", "ghsa")
	require.NoError(t, err)
	assert.True(t, first.Add(time.Hour).Equal(got))
}

func TestGetLastUpdatedDate_BrokenFile(t *testing.T) {
	appFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(appFs, "/vuln-list/last_updated.json", []byte("{"), 0600))

	_, err := utils.GetLastUpdatedDate(appFs, "/vuln-list", "snyk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}
