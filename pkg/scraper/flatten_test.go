package scraper

import (
	"encoding/json"
	"testing"

	"bskyscraper/pkg/bluesky"
	"bskyscraper/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePost(t *testing.T, data string) bluesky.PostView {
	t.Helper()
	var post bluesky.PostView
	require.NoError(t, json.Unmarshal([]byte(data), &post))
	return post
}

func TestFlattenMandatoryFields(t *testing.T) {
	post := decodePost(t, `{
		"uri": "at://did:plc:alice/app.bsky.feed.post/3kxyz",
		"author": {"handle": "alice.bsky.social", "displayName": "Alice"},
		"record": {"text": "hi", "createdAt": "2024-01-02T03:04:05Z"},
		"likeCount": 7, "repostCount": 2, "replyCount": 1
	}`)

	rec := Flatten(post, Toggles{})

	assert.Equal(t, "3kxyz", rec.PostID)
	assert.Equal(t, "alice.bsky.social", rec.Author)
	assert.Equal(t, "Alice", rec.AuthorDisplayName)
	assert.Equal(t, "hi", rec.Text)
	assert.Equal(t, "2024-01-02T03:04:05Z", rec.CreatedAt)
	assert.Equal(t, 7, rec.Likes)
	assert.Equal(t, 2, rec.Reposts)
	assert.Nil(t, rec.Replies)
	assert.Nil(t, rec.HasImages)
	assert.Nil(t, rec.ImageCount)
	assert.Nil(t, rec.IsQuote)
	assert.Nil(t, rec.QuotedPost)
}

func TestFlattenEmbedWithoutImages(t *testing.T) {
	post := decodePost(t, `{
		"uri": "at://did:plc:a/app.bsky.feed.post/1",
		"record": {"text": "link", "createdAt": "2024-01-02T03:04:05Z"},
		"embed": {"$type": "app.bsky.embed.external#view", "external": {"uri": "https://example.com"}}
	}`)

	rec := Flatten(post, Toggles{Images: true})

	require.NotNil(t, rec.HasImages)
	assert.False(t, *rec.HasImages)
	assert.Equal(t, 0, *rec.ImageCount)
}

func TestFlattenNoEmbed(t *testing.T) {
	rec := Flatten(bluesky.PostView{URI: "at://x/app.bsky.feed.post/1"}, Toggles{Images: true})

	assert.False(t, *rec.HasImages)
	assert.Equal(t, 0, *rec.ImageCount)
}

func TestFlattenImages(t *testing.T) {
	post := decodePost(t, `{
		"uri": "at://did:plc:a/app.bsky.feed.post/1",
		"record": {"text": "pics", "createdAt": "2024-01-02T03:04:05Z"},
		"embed": {"$type": "app.bsky.embed.images#view", "images": [{"thumb": "a"}, {"thumb": "b"}, {"thumb": "c"}]}
	}`)

	rec := Flatten(post, Toggles{Images: true})

	assert.True(t, *rec.HasImages)
	assert.Equal(t, 3, *rec.ImageCount)
}

func TestFlattenQuote(t *testing.T) {
	post := decodePost(t, `{
		"uri": "at://did:plc:a/app.bsky.feed.post/1",
		"record": {
			"text": "look at this", "createdAt": "2024-01-02T03:04:05Z",
			"embed": {"$type": "app.bsky.embed.record", "record": {"uri": "at://did:plc:b/app.bsky.feed.post/q", "cid": "c"}}
		}
	}`)

	rec := Flatten(post, Toggles{Quotes: true})

	assert.True(t, *rec.IsQuote)
	require.NotNil(t, rec.QuotedPost)
	assert.Equal(t, "at://did:plc:b/app.bsky.feed.post/q", *rec.QuotedPost)
}

func TestFlattenNonQuoteHasNoQuotedPost(t *testing.T) {
	rec := Flatten(bluesky.PostView{URI: "at://x/app.bsky.feed.post/1"}, Toggles{Quotes: true})

	assert.False(t, *rec.IsQuote)
	assert.Nil(t, rec.QuotedPost)
}

func TestFlattenReplies(t *testing.T) {
	rec := Flatten(bluesky.PostView{URI: "at://x/app.bsky.feed.post/1", ReplyCount: 4}, Toggles{Replies: true})

	require.NotNil(t, rec.Replies)
	assert.Equal(t, 4, *rec.Replies)
}

func TestColumns(t *testing.T) {
	assert.Equal(t, []string{
		models.ColPostID, models.ColAuthor, models.ColAuthorDisplayName, models.ColText,
		models.ColCreatedAt, models.ColLikes, models.ColReposts,
		models.ColReplies, models.ColHasImages, models.ColImageCount, models.ColIsQuote,
	}, Columns(Toggles{Images: true, Replies: true, Quotes: true}))

	assert.Len(t, Columns(Toggles{}), 7)
}
