package mapyrus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigFlattensNestedKeys(t *testing.T) {
	config, err := ParseConfig([]byte(`
units: metres
page:
  width: 210
  height: 297
  margins:
    top: 10
`), "test.yml")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"units":            "metres",
		"page.width":       "210",
		"page.height":      "297",
		"page.margins.top": "10",
	}, config)
}

func TestParseConfigEmptyValues(t *testing.T) {
	config, err := ParseConfig([]byte("title:\n"), "test.yml")
	require.NoError(t, err)
	assert.Equal(t, "", config["title"])
}

func TestParseConfigRejectsMalformedYAML(t *testing.T) {
	_, err := ParseConfig([]byte("a: [unclosed"), "test.yml")
	require.Error(t, err)
	assert.Equal(t, ErrResource, err.(Err).Reason())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.yml")
	require.NoError(t, os.WriteFile(path, []byte("units: points\n"), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "points", config["units"])

	// loaded values are served through the reserved variables
	cs := NewContextStack()
	cs.SetConfig(config)
	assert.Equal(t, "points", cs.GetVariable("Mapyrus.config.units").StringValue())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/no/such/config.yml")
	require.Error(t, err)
	assert.Equal(t, ErrResource, err.(Err).Reason())
}
