package monitor

import (
	"strconv"
	"strings"

	"github.com/ja7ad/frogkill/pkg/sampler"
)

// Filter keeps records whose name, user or pid contains query, ignoring
// case. An empty query keeps everything. Order is preserved.
func Filter(records []sampler.ProcessRecord, query string) []sampler.ProcessRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	out := make([]sampler.ProcessRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Name), q) ||
			strings.Contains(strings.ToLower(r.User), q) ||
			strings.Contains(strconv.Itoa(r.PID), q) {
			out = append(out, r)
		}
	}
	return out
}

// Top returns at most n records; n <= 0 means all.
func Top(records []sampler.ProcessRecord, n int) []sampler.ProcessRecord {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[:n]
}
