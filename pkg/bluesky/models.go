package bluesky

import "encoding/json"

// Embed $type values seen on post records and views
const (
	TypeEmbedImages          = "app.bsky.embed.images"
	TypeEmbedImagesView      = "app.bsky.embed.images#view"
	TypeEmbedRecord          = "app.bsky.embed.record"
	TypeEmbedRecordWithMedia = "app.bsky.embed.recordWithMedia"
)

// Session is the result of com.atproto.server.createSession
type Session struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	DID        string `json:"did"`
}

// TimelinePage is one page of app.bsky.feed.getTimeline.
// An empty Cursor means there are no further pages.
type TimelinePage struct {
	Feed   []FeedViewPost `json:"feed"`
	Cursor string         `json:"cursor,omitempty"`
}

// FeedViewPost wraps a post in a feed
type FeedViewPost struct {
	Post PostView `json:"post"`
}

// PostView is the hydrated view of a post
type PostView struct {
	URI         string     `json:"uri"`
	CID         string     `json:"cid"`
	Author      Author     `json:"author"`
	Record      PostRecord `json:"record"`
	Embed       *EmbedView `json:"embed,omitempty"`
	LikeCount   int        `json:"likeCount"`
	RepostCount int        `json:"repostCount"`
	ReplyCount  int        `json:"replyCount"`
	QuoteCount  int        `json:"quoteCount"`
	IndexedAt   string     `json:"indexedAt"`
}

// Author is the basic profile view attached to a post
type Author struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
}

// EmbedView is the hydrated embed of a post. Images is nil when the embed
// carries no image list (external links, quotes, videos).
type EmbedView struct {
	Type   string      `json:"$type"`
	Images []ImageView `json:"images,omitempty"`
}

// ImageView is one image in an images embed view
type ImageView struct {
	Thumb    string `json:"thumb"`
	Fullsize string `json:"fullsize"`
	Alt      string `json:"alt"`
}

// QuoteRef points at a quoted post
type QuoteRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// PostRecord is the app.bsky.feed.post record. Quote is derived from the
// record's embed when it references another record.
type PostRecord struct {
	Type      string    `json:"$type"`
	Text      string    `json:"text"`
	CreatedAt string    `json:"createdAt"`
	Langs     []string  `json:"langs,omitempty"`
	Quote     *QuoteRef `json:"-"`
}

type recordEmbed struct {
	Type   string          `json:"$type"`
	Record json.RawMessage `json:"record"`
}

// UnmarshalJSON decodes the record and resolves the quote reference.
// app.bsky.embed.record holds the strong ref directly; recordWithMedia
// nests it one level deeper.
func (r *PostRecord) UnmarshalJSON(data []byte) error {
	type plain PostRecord
	var raw struct {
		plain
		Embed *recordEmbed `json:"embed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = PostRecord(raw.plain)

	if raw.Embed == nil || len(raw.Embed.Record) == 0 {
		return nil
	}

	switch raw.Embed.Type {
	case TypeEmbedRecord:
		var ref QuoteRef
		if err := json.Unmarshal(raw.Embed.Record, &ref); err != nil {
			return err
		}
		if ref.URI != "" {
			r.Quote = &ref
		}
	case TypeEmbedRecordWithMedia:
		var nested struct {
			Record QuoteRef `json:"record"`
		}
		if err := json.Unmarshal(raw.Embed.Record, &nested); err != nil {
			return err
		}
		if nested.Record.URI != "" {
			r.Quote = &nested.Record
		}
	}
	return nil
}

// xrpcError is the body of a non-2xx XRPC response
type xrpcError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
