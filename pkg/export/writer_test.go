package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkstats/pkg/logger"
	"vkstats/pkg/stats"
	"vkstats/pkg/vk"
)

func sampleEntries() []stats.RankedEntry {
	return []stats.RankedEntry{
		{Count: 8, User: vk.User{ID: 1, FirstName: "Ann", LastName: "Smith", ScreenName: "ann"}},
		{Count: 2, User: vk.User{ID: 2, FirstName: "Bob", LastName: "Jones", ScreenName: "id2"}},
	}
}

func TestParseFormat(t *testing.T) {
	for _, input := range []string{"csv", "TXT", "all"} {
		_, err := ParseFormat(input)
		assert.NoError(t, err, input)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteAllFormats(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewWriter(dir, FormatAll, logger.NewNop())
	require.NoError(t, err)

	paths, err := writer.Write(stats.ModeLiked, "club42", sampleEntries())
	require.NoError(t, err)
	require.Len(t, paths, 2)

	// The liked mode exports under its report label.
	assert.Equal(t, filepath.Join(dir, "likes_club42.txt"), paths[0])
	assert.Equal(t, filepath.Join(dir, "likes_club42.csv"), paths[1])

	text, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(text), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "STATISTICS FOR LIKES", lines[0])
	assert.Equal(t, "https://vk.com/ann (Ann Smith): 8", lines[1])
	assert.Equal(t, "https://vk.com/id2 (Bob Jones): 2", lines[2])

	file, err := os.Open(paths[1])
	require.NoError(t, err)
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"URL", "Name", "Count"}, records[0])
	assert.Equal(t, []string{"https://vk.com/ann", "Ann Smith", "8"}, records[1])
	assert.Equal(t, []string{"https://vk.com/id2", "Bob Jones", "2"}, records[2])
}

func TestWriteSingleFormat(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewWriter(dir, FormatTxt, logger.NewNop())
	require.NoError(t, err)

	paths, err := writer.Write(stats.ModePosts, "ann", sampleEntries())
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.True(t, strings.HasSuffix(paths[0], "posts_ann.txt"))

	_, err = os.Stat(filepath.Join(dir, "posts_ann.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteEmptyRanking(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewWriter(dir, FormatCSV, logger.NewNop())
	require.NoError(t, err)

	paths, err := writer.Write(stats.ModeLikers, "club1", nil)
	require.NoError(t, err)
	require.Len(t, paths, 1)

	file, err := os.Open(paths[0])
	require.NoError(t, err)
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	// Header only.
	require.Len(t, records, 1)
}

func TestWriteOverwritesPrevious(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewWriter(dir, FormatTxt, logger.NewNop())
	require.NoError(t, err)

	stale := filepath.Join(dir, "posts_ann.txt")
	require.NoError(t, os.WriteFile(stale, []byte("stale report\n"), 0644))

	_, err = writer.Write(stats.ModePosts, "ann", sampleEntries())
	require.NoError(t, err)

	text, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.NotContains(t, string(text), "stale")
	assert.Contains(t, string(text), "STATISTICS FOR POSTS")
}

func TestNewWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")
	_, err := NewWriter(dir, FormatAll, logger.NewNop())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
