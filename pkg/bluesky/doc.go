// Package bluesky is a small XRPC client for the two Bluesky methods the
// collector needs: com.atproto.server.createSession and
// app.bsky.feed.getTimeline.
//
//	client := bluesky.NewClient(cfg.Bluesky.Host, cfg.Bluesky.RequestTimeout, limiter, log)
//	if _, err := client.Login(ctx, cfg.Bluesky.Identifier, cfg.Bluesky.Password); err != nil {
//	    return err
//	}
//	page, err := client.GetTimeline(ctx, 50, "")
//
// Failures are returned as *errors.Error so callers can branch on the type.
package bluesky
