package scraper

import (
	"bskyscraper/pkg/bluesky"
	"bskyscraper/pkg/models"
)

// Toggles selects the optional field groups of a record
type Toggles struct {
	Images  bool
	Replies bool
	Quotes  bool
}

// Flatten converts one timeline post into a record. Optional groups whose
// toggle is off are left nil so they never become columns.
func Flatten(post bluesky.PostView, toggles Toggles) models.PostRecord {
	rec := models.PostRecord{
		PostID:            bluesky.RecordKey(post.URI),
		Author:            post.Author.Handle,
		AuthorDisplayName: post.Author.DisplayName,
		Text:              post.Record.Text,
		CreatedAt:         post.Record.CreatedAt,
		Likes:             post.LikeCount,
		Reposts:           post.RepostCount,
	}

	if toggles.Replies {
		replies := post.ReplyCount
		rec.Replies = &replies
	}

	if toggles.Images {
		hasImages := post.Embed != nil && post.Embed.Images != nil
		count := 0
		if hasImages {
			count = len(post.Embed.Images)
		}
		rec.HasImages = &hasImages
		rec.ImageCount = &count
	}

	if toggles.Quotes {
		isQuote := post.Record.Quote != nil
		rec.IsQuote = &isQuote
		if isQuote {
			uri := post.Record.Quote.URI
			rec.QuotedPost = &uri
		}
	}

	return rec
}

// Columns lists the columns a run with these toggles produces when no
// record quotes another post. It is the header of an empty result.
func Columns(toggles Toggles) []string {
	cols := []string{
		models.ColPostID,
		models.ColAuthor,
		models.ColAuthorDisplayName,
		models.ColText,
		models.ColCreatedAt,
		models.ColLikes,
		models.ColReposts,
	}
	if toggles.Replies {
		cols = append(cols, models.ColReplies)
	}
	if toggles.Images {
		cols = append(cols, models.ColHasImages, models.ColImageCount)
	}
	if toggles.Quotes {
		cols = append(cols, models.ColIsQuote)
	}
	return cols
}
