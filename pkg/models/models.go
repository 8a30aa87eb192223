package models

import "strconv"

// Column names of a flattened post, in output order
const (
	ColPostID            = "post_id"
	ColAuthor            = "author"
	ColAuthorDisplayName = "author_display_name"
	ColText              = "text"
	ColCreatedAt         = "created_at"
	ColLikes             = "likes"
	ColReposts           = "reposts"
	ColReplies           = "replies"
	ColHasImages         = "has_images"
	ColImageCount        = "image_count"
	ColIsQuote           = "is_quote"
	ColQuotedPost        = "quoted_post"
)

// PostRecord is one flattened timeline post. Optional fields are nil when
// the matching collection toggle is off; QuotedPost is also nil for posts
// that do not quote anything.
type PostRecord struct {
	PostID            string
	Author            string
	AuthorDisplayName string
	Text              string
	CreatedAt         string
	Likes             int
	Reposts           int

	Replies    *int
	HasImages  *bool
	ImageCount *int
	IsQuote    *bool
	QuotedPost *string
}

// Field is one named cell of a record
type Field struct {
	Name  string
	Value string
}

// Fields returns the present fields of the record in column order.
// Absent optional fields are omitted entirely rather than emitted empty.
func (r PostRecord) Fields() []Field {
	fields := []Field{
		{ColPostID, r.PostID},
		{ColAuthor, r.Author},
		{ColAuthorDisplayName, r.AuthorDisplayName},
		{ColText, r.Text},
		{ColCreatedAt, r.CreatedAt},
		{ColLikes, strconv.Itoa(r.Likes)},
		{ColReposts, strconv.Itoa(r.Reposts)},
	}

	if r.Replies != nil {
		fields = append(fields, Field{ColReplies, strconv.Itoa(*r.Replies)})
	}
	if r.HasImages != nil {
		fields = append(fields, Field{ColHasImages, formatBool(*r.HasImages)})
	}
	if r.ImageCount != nil {
		fields = append(fields, Field{ColImageCount, strconv.Itoa(*r.ImageCount)})
	}
	if r.IsQuote != nil {
		fields = append(fields, Field{ColIsQuote, formatBool(*r.IsQuote)})
	}
	if r.QuotedPost != nil {
		fields = append(fields, Field{ColQuotedPost, *r.QuotedPost})
	}
	return fields
}

// HasImagesValue reports the image flag, false when not collected
func (r PostRecord) HasImagesValue() bool {
	return r.HasImages != nil && *r.HasImages
}

// booleans are written the way spreadsheet tools and pandas read them back
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
