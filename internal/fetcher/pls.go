package fetcher

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	rePLSFile  = regexp.MustCompile(`(?i)^File(\d+)=(.*)$`)
	rePLSTitle = regexp.MustCompile(`(?i)^Title(\d+)=(.*)$`)
)

// plsEntry collects the File/Title pair seen for one index.
type plsEntry struct {
	url, name string
}

// ParsePLS reads a PLS playlist and returns entries with "url" and "name" keys,
// ordered by index. Indices missing either a FileN or a TitleN line are dropped.
// Stream URLs are not validated here.
func ParsePLS(r io.Reader) ([]RawEntry, error) {
	scanner := bufio.NewScanner(r)
	const maxSize = 1024 * 1024
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxSize)

	byIndex := make(map[int]*plsEntry)
	entry := func(idx int) *plsEntry {
		e, ok := byIndex[idx]
		if !ok {
			e = &plsEntry{}
			byIndex[idx] = e
		}
		return e
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if m := rePLSFile.FindStringSubmatch(line); m != nil {
			idx, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			e := entry(idx)
			e.url = strings.TrimSpace(m[2])
			continue
		}
		if m := rePLSTitle.FindStringSubmatch(line); m != nil {
			idx, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			e := entry(idx)
			e.name = strings.TrimSpace(m[2])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan pls: %w", err)
	}

	indices := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}
	slices.Sort(indices)

	entries := make([]RawEntry, 0, len(indices))
	for _, idx := range indices {
		e := byIndex[idx]
		if e.url == "" || e.name == "" {
			continue
		}
		entries = append(entries, RawEntry{"url": e.url, "name": e.name})
	}
	return entries, nil
}
