package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/permitmap"
	"github.com/agentstation/permitmap/internal/cmd/application"
	"github.com/agentstation/permitmap/pkg/logging"
	"github.com/agentstation/permitmap/pkg/permits"
	"github.com/agentstation/permitmap/pkg/registry"
)

func mockApp(t *testing.T, out *bytes.Buffer, format string) *application.Mock {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"permit_number":"P-9","address":"9 Elm St","permit_type":"Solar","status":"Issued"}]`))
	}))
	t.Cleanup(srv.Close)

	reg, err := registry.New(
		registry.Entry{City: "springfield", Kind: registry.KindSocrata, Endpoint: srv.URL, Dataset: "abcd-1234", TrustScore: 0.9},
		registry.Entry{City: "shelbyville", Kind: registry.KindScrape, TrustScore: 0.4},
	)
	require.NoError(t, err)
	client, err := permitmap.New(permitmap.WithRegistry(reg), permitmap.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)

	return &application.Mock{
		ClientFunc:       func() (permitmap.Client, error) { return client, nil },
		OutputFormatFunc: func() string { return format },
		Out:              out,
	}
}

func run(t *testing.T, app *application.Mock, args ...string) error {
	t.Helper()
	root := &cobra.Command{Use: "permitmap"}
	root.AddGroup(&cobra.Group{ID: "core", Title: "Core"})
	root.AddCommand(NewCommand(app))
	root.SetArgs(append([]string{"fetch"}, args...))
	return root.ExecuteContext(context.Background())
}

func TestFetchJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(t, mockApp(t, &out, "json"), "solar", "panel"))

	var res permits.AggregateResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "solar panel", res.Query)
	assert.Equal(t, 1, res.TotalItems)
	assert.Equal(t, "P-9", res.AggregatedItems[0].ID)
	assert.Equal(t, 0.9, res.Confidence)
}

func TestFetchCityFilter(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(t, mockApp(t, &out, "json"), "roof", "--city", "shelbyville"))

	var res permits.AggregateResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 0, res.TotalItems)
	require.Len(t, res.Cities, 1)
	assert.Equal(t, "shelbyville", res.Cities[0].City)
	assert.Equal(t, 0.0, res.Confidence)
}

func TestFetchTable(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(t, mockApp(t, &out, "table"), "solar"))

	text := out.String()
	assert.Contains(t, text, "P-9")
	assert.Contains(t, text, "9 Elm St")
	assert.Contains(t, text, "springfield")
	assert.Contains(t, text, "confidence 0.90")
}
