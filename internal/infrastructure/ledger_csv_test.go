package infrastructure

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLedger(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVLedger_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video_data.csv")
	ledger := NewCSVLedger(path)

	require.NoError(t, ledger.Append("Some Channel", "First", "https://www.youtube.com/watch?v=1"))
	require.NoError(t, ledger.Append("Some Channel", "Second, with comma", "https://www.youtube.com/watch?v=2"))

	records := readLedger(t, path)
	assert.Equal(t, [][]string{
		{"Channel Name", "Video Title", "Video URL"},
		{"Some Channel", "First", "https://www.youtube.com/watch?v=1"},
		{"Some Channel", "Second, with comma", "https://www.youtube.com/watch?v=2"},
	}, records)
}

func TestCSVLedger_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "video_data.csv")

	require.NoError(t, NewCSVLedger(path).Append("A", "One", "u1"))
	require.NoError(t, NewCSVLedger(path).Append("A", "Two", "u2"))

	records := readLedger(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, "Two", records[2][1])
}

func TestCSVLedger_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video_data.csv")
	ledger := NewCSVLedger(path)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, ledger.Append("Chan", fmt.Sprintf("Video %d", i), fmt.Sprintf("u%d", i)))
		}(i)
	}
	wg.Wait()

	records := readLedger(t, path)
	assert.Len(t, records, 21)
	for _, r := range records {
		assert.Len(t, r, 3)
	}
}

func TestCSVLedger_UTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video_data.csv")
	require.NoError(t, NewCSVLedger(path).Append("Café", "日本語タイトル", "u"))

	records := readLedger(t, path)
	assert.Equal(t, []string{"Café", "日本語タイトル", "u"}, records[1])
}
