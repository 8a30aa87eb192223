package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func names(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func TestFieldsMandatoryOnly(t *testing.T) {
	r := PostRecord{PostID: "3k", Author: "alice", Likes: 2, Reposts: 1}

	assert.Equal(t,
		[]string{ColPostID, ColAuthor, ColAuthorDisplayName, ColText, ColCreatedAt, ColLikes, ColReposts},
		names(r.Fields()))
}

func TestFieldsAllOptional(t *testing.T) {
	replies, count := 3, 2
	hasImages, isQuote := true, true
	quoted := "at://did:plc:b/app.bsky.feed.post/q"

	r := PostRecord{
		PostID: "3k", Replies: &replies,
		HasImages: &hasImages, ImageCount: &count,
		IsQuote: &isQuote, QuotedPost: &quoted,
	}

	fields := r.Fields()
	assert.Equal(t,
		[]string{ColPostID, ColAuthor, ColAuthorDisplayName, ColText, ColCreatedAt, ColLikes, ColReposts,
			ColReplies, ColHasImages, ColImageCount, ColIsQuote, ColQuotedPost},
		names(fields))
	assert.Equal(t, "True", fields[8].Value)
	assert.Equal(t, quoted, fields[11].Value)
	assert.True(t, r.HasImagesValue())
}

func TestHasImagesValueWhenNotCollected(t *testing.T) {
	assert.False(t, PostRecord{}.HasImagesValue())
}
