package recommend

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/assessrec/internal/domain/recommendation"
)

// Summary renders items as human-readable text blocks separated by blank lines.
func Summary(items []recommendation.Item) string {
	blocks := make([]string, len(items))
	for i, it := range items {
		e := it.Candidate.Entry
		blocks[i] = fmt.Sprintf("%d. %s (%s | %s)\n   Evidence: %s\n   Link: %s\n",
			it.Rank, e.Name, e.Category, e.JobLevels, it.Evidence, e.URL)
	}
	return strings.Join(blocks, "\n")
}
