package content

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

var (
	ErrMalformedMediaURL = errors.New("malformed media url")
	unsafeFilenameChars  = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// SafeFilename keeps [A-Za-z0-9_-] and replaces everything else with "_".
func SafeFilename(title string) string {
	if title == "" {
		return fallbackSlug
	}
	return unsafeFilenameChars.ReplaceAllString(title, "_")
}

// AttachmentDisposition is the Content-Disposition a download is served
// with.
func AttachmentDisposition(title string) string {
	return fmt.Sprintf("attachment; filename=%q", SafeFilename(title))
}

// AttachmentURL rewrites a stored media URL so the object store serves it
// with an attachment disposition named after title.
func AttachmentURL(rawURL, title string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedMediaURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.Path == "" || u.Path == "/" {
		return "", fmt.Errorf("%w: %q", ErrMalformedMediaURL, rawURL)
	}

	q := u.Query()
	q.Set("response-content-disposition", AttachmentDisposition(title))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
