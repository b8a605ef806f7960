package utils_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/vuln-list-snyk/utils"
)

func TestFetchURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vuln/npm:xlsx:20180222" {
			http.Error(w, "oops", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer ts.Close()

	got, err := utils.FetchURL(ts.URL+"/vuln/npm:xlsx:20180222", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(got))

	_, err = utils.FetchURL(ts.URL+"/vuln/broken", "", 0)
	assert.ErrorContains(t, err, "status code: 500")
}

func TestGenWorkers(t *testing.T) {
	var (
		wg    sync.WaitGroup
		count int32
	)
	tasks := utils.GenWorkers(4, 0)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		tasks <- func() {
			defer wg.Done()
			atomic.AddInt32(&count, 1)
		}
	}
	close(tasks)
	wg.Wait()

	assert.EqualValues(t, 20, count)
}

func TestVulnListDir(t *testing.T) {
	t.Setenv("VULN_LIST_DIR", "/tmp/vuln-list")
	assert.Equal(t, "/tmp/vuln-list", utils.VulnListDir())
}
