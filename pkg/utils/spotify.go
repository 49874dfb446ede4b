package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var rawTrackID = regexp.MustCompile(`^[a-zA-Z0-9]{22}$`)

// ExtractTrackID returns the Spotify track ID from an open.spotify.com URL,
// a spotify:track: URI or a bare 22 character ID.
func ExtractTrackID(trackURL string) (string, error) {
	trackURL = strings.TrimSpace(trackURL)

	if strings.HasPrefix(trackURL, "spotify:track:") {
		id := strings.TrimPrefix(trackURL, "spotify:track:")
		if rawTrackID.MatchString(id) {
			return id, nil
		}
		return "", fmt.Errorf("invalid track ID in URI: %s", trackURL)
	}

	if rawTrackID.MatchString(trackURL) {
		return trackURL, nil
	}

	if !strings.Contains(trackURL, "://") {
		trackURL = "https://" + trackURL
	}
	u, err := url.Parse(trackURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	if strings.EqualFold(u.Host, "open.spotify.com") {
		// Paths look like /track/{id} or /intl-xx/track/{id}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i+1 < len(parts); i++ {
			if parts[i] == "track" && parts[i+1] != "" {
				return parts[i+1], nil
			}
		}
	}

	return "", fmt.Errorf("could not extract a Spotify track ID from: %s", trackURL)
}

// CacheKey derives a stable key for a seed reference. Spotify references
// collapse to their track ID so URL variants share a cache entry.
func CacheKey(trackURL string) string {
	if id, err := ExtractTrackID(trackURL); err == nil {
		return "spotify:" + id
	}
	return strings.TrimSpace(trackURL)
}
