package server

import "net/url"

// listURL builds the /list link for a prefix. Cursor parameters are only
// added when there is a prefix to resume. An undecodable prefix comes in as ""
// and links to an empty prefix field.
func listURL(prefix, cursor, nextCursor string) string {
	q := url.Values{}
	q.Set("prefix", prefix)
	if prefix != "" && cursor != "" {
		q.Set("cursor", cursor)
	}
	if prefix != "" && nextCursor != "" {
		q.Set("nextCursor", nextCursor)
	}
	return "/list?" + q.Encode()
}

func getURL(query string) string {
	return "/get?" + url.Values{"q": {query}}.Encode()
}
