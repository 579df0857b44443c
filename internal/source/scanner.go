package source

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// HistoryExt is the file extension of per-user history files.
const HistoryExt = ".jsonl"

// HistoryPath returns the history file path for a user.
func HistoryPath(dir string, userID int) string {
	return filepath.Join(dir, strconv.Itoa(userID)+HistoryExt)
}

// ScanDir lists the per-user history files directly under dir, sorted by user id.
// Files whose stem is not an integer are ignored. A missing dir yields no files.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []DiscoveredFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, HistoryExt) {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(name, HistoryExt))
		if err != nil {
			continue
		}
		files = append(files, DiscoveredFile{
			Path:   filepath.Join(dir, name),
			UserID: id,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].UserID < files[j].UserID })
	return files, nil
}

// UserIDs returns the user ids of the discovered files.
func UserIDs(files []DiscoveredFile) []int {
	ids := make([]int, len(files))
	for i, f := range files {
		ids[i] = f.UserID
	}
	return ids
}
