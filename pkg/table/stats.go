package table

// Summary holds the aggregates printed after a run
type Summary struct {
	TotalPosts      int
	UniqueAuthors   int
	PostsWithImages int
	AvgLikes        float64
	AvgReposts      float64
}

// Summarize computes the run statistics. Means are 0 for an empty table.
func (t *Table) Summarize() Summary {
	s := Summary{TotalPosts: len(t.records)}
	if s.TotalPosts == 0 {
		return s
	}

	authors := make(map[string]struct{})
	var likes, reposts int
	for _, r := range t.records {
		authors[r.Author] = struct{}{}
		likes += r.Likes
		reposts += r.Reposts
		if r.HasImagesValue() {
			s.PostsWithImages++
		}
	}

	s.UniqueAuthors = len(authors)
	s.AvgLikes = float64(likes) / float64(s.TotalPosts)
	s.AvgReposts = float64(reposts) / float64(s.TotalPosts)
	return s
}
