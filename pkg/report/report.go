// Package report prints the outcome of a collection run.
package report

import (
	"fmt"
	"io"

	"bskyscraper/pkg/table"
)

// Print writes the save confirmation and the statistics block to w.
// The images line is only printed when image metadata was collected.
func Print(w io.Writer, path string, s table.Summary, includeImages bool) error {
	lines := []string{
		fmt.Sprintf("Successfully saved %d posts to %s", s.TotalPosts, path),
		"",
		"Basic Statistics:",
		fmt.Sprintf("Total posts collected: %d", s.TotalPosts),
		fmt.Sprintf("Unique authors: %d", s.UniqueAuthors),
	}
	if includeImages {
		lines = append(lines, fmt.Sprintf("Posts with images: %d", s.PostsWithImages))
	}
	lines = append(lines,
		fmt.Sprintf("Average likes per post: %.2f", s.AvgLikes),
		fmt.Sprintf("Average reposts per post: %.2f", s.AvgReposts),
	)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
