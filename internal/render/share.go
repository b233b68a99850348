package render

import "net/url"

// shareURL builds the sharing link of a social platform for pageURL.
// Unknown platforms yield "".
func shareURL(platform, pageURL, title string) string {
	u := url.QueryEscape(pageURL)
	switch platform {
	case "facebook":
		return "https://www.facebook.com/sharer/sharer.php?u=" + u
	case "twitter":
		return "https://twitter.com/intent/tweet?url=" + u + "&text=" + url.QueryEscape(title)
	case "linkedin":
		return "https://www.linkedin.com/sharing/share-offsite/?url=" + u
	case "email":
		return "mailto:?subject=" + url.PathEscape(title) + "&body=" + url.PathEscape(pageURL)
	}
	return ""
}
