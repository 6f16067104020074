package handlers

import (
	"ringhub/server/internal/codec"
	"ringhub/server/internal/linkpreview"
)

// fetchAndBroadcastLinkPreview runs on the scheduler's immediate queue, off
// the message-handling goroutine, so a slow or unreachable link never stalls
// chat delivery (the ChatMessageBroadcast has already gone out by the time
// this runs). Only the first URL in the message is previewed.
func fetchAndBroadcastLinkPreview(deps *Deps, roomID, message string) {
	url := linkpreview.ExtractFirstURL(message)
	if url == "" {
		return
	}
	p, err := linkpreview.Fetch(url)
	if err != nil {
		deps.log().Debug("link preview fetch failed", "url", url, "err", err)
		return
	}
	if p.Title == "" && p.Desc == "" && p.Image == "" {
		return
	}
	notice := codec.LinkPreviewBroadcast{URL: p.URL, Title: p.Title, Desc: p.Desc, Image: p.Image}
	deps.Lobby.BroadcastToRoom(deps.broadcast(), roomID, "", codec.IDLinkPreviewBroadcast, notice.Encode(), false)
}
