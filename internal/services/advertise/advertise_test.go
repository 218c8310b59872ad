package advertise

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	public := filepath.Join(dir, "public")
	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := Advertiser{
		PublicDir:  public,
		PortFile:   filepath.Join(dir, "server-port.txt"),
		ServerPath: "/srv/docpost",
		Now:        func() time.Time { return stamp },
	}
	require.NoError(t, a.Publish(51234))

	for _, path := range []string{filepath.Join(public, "server-port.txt"), a.PortFile} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "51234", string(data))
	}

	raw, err := os.ReadFile(filepath.Join(public, "port-info.json"))
	require.NoError(t, err)
	var info models.PortInfo
	require.NoError(t, json.Unmarshal(raw, &info))
	assert.Equal(t, 51234, info.Port)
	assert.True(t, info.Timestamp.Equal(stamp))
	assert.Equal(t, "/srv/docpost", info.ServerPath)
}

func TestPublishReportsFailures(t *testing.T) {
	dir := t.TempDir()
	a := Advertiser{PortFile: filepath.Join(dir, "missing", "server-port.txt")}
	assert.Error(t, a.Publish(1))
}

func TestListenFallsBackToRandomPort(t *testing.T) {
	taken, port, err := Listen("127.0.0.1", 0, false)
	require.NoError(t, err)
	defer taken.Close()

	_, _, err = Listen("127.0.0.1", port, false)
	require.Error(t, err, "port should be in use")

	ln, got, err := Listen("127.0.0.1", port, true)
	require.NoError(t, err)
	defer ln.Close()
	assert.NotEqual(t, port, got)
	assert.NotZero(t, got)
}
