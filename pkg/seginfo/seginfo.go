// Package seginfo provides utilities for naming and discovering the
// numbered log segment files a storage engine instance owns.
//
// Filename format: <prefix><N>.txt
//
// Where:
//   - prefix: a configurable string identifying the file type (default "data_").
//   - N: a non-negative decimal segment number, strictly increasing in the
//     order segments were created. Unlike timestamp-suffixed naming schemes,
//     N alone determines both uniqueness and ordering.
//
// Example filenames:
//
//	data_0.txt
//	data_1.txt
//	data_42.txt
package seginfo

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/filesys"
)

// GenerateName creates the filename for the segment numbered id.
func GenerateName(id uint64, prefix string) string {
	return fmt.Sprintf("%s%d.txt", prefix, id)
}

// ParseSegmentID extracts the numeric segment ID from a segment filename.
func ParseSegmentID(fullPath, prefix string) (uint64, error) {
	_, filename := filepath.Split(fullPath)

	if !strings.HasPrefix(filename, prefix) {
		return 0, fmt.Errorf("filename %s does not start with expected prefix %s", filename, prefix)
	}

	withoutPrefix := strings.TrimPrefix(filename, prefix)
	withoutExtension := strings.TrimSuffix(withoutPrefix, ".txt")

	id, err := strconv.ParseUint(withoutExtension, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse segment ID %q: %w", withoutExtension, err)
	}

	return id, nil
}

// ListSegmentIDs discovers every segment file under dir matching prefix and
// returns their numeric IDs sorted ascending. A directory with no segments
// yet returns an empty, non-nil slice.
func ListSegmentIDs(dir, prefix string) ([]uint64, error) {
	searchPattern := filepath.Join(dir, prefix+"*.txt")

	matches, err := filesys.ReadDir(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to read segment directory with pattern %s: %w", searchPattern, err)
	}

	ids := make([]uint64, 0, len(matches))
	for _, m := range matches {
		id, err := ParseSegmentID(m, prefix)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	slices.Sort(ids)
	return ids, nil
}

// LatestSegmentID returns the greatest existing segment ID under dir, and
// whether any segment exists at all.
func LatestSegmentID(dir, prefix string) (id uint64, found bool, err error) {
	ids, err := ListSegmentIDs(dir, prefix)
	if err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[len(ids)-1], true, nil
}

// Path joins dir, prefix and id into the full path of a segment file.
func Path(dir, prefix string, id uint64) string {
	return filepath.Join(dir, GenerateName(id, prefix))
}

// GetFileInfo safely retrieves file system metadata for a given path.
func GetFileInfo(filePath string) (os.FileInfo, error) {
	file, err := os.OpenFile(filePath, os.O_RDONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info for %s: %w", filePath, err)
	}

	return stat, nil
}
