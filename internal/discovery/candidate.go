package discovery

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"reelscout/internal/record"
	"reelscout/internal/services/vimeo"
)

// CanonicalID derives the deduplication identifier from a source URL. It is a
// pure function of the URL: scheme, query parameters, fragments, a leading
// "www." and any trailing slash are all identity-irrelevant, so two links to
// the same video always collapse to one identifier.
func CanonicalID(sourceURL string) string {
	trimmed := strings.TrimSpace(sourceURL)
	if trimmed == "" {
		return ""
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		// Fall back to a best-effort normalization for bare values.
		return strings.ToLower(strings.TrimRight(trimmed, "/"))
	}
	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")
	path := strings.TrimRight(parsed.Path, "/")
	return host + path
}

// candidateFromVideo normalizes one raw search hit. Descriptions are bounded
// so a pathological upload cannot bloat every downstream payload.
func candidateFromVideo(video vimeo.Video, query string) record.Candidate {
	const maxDescription = 300

	description := strings.TrimSpace(video.Description)
	if len(description) > maxDescription {
		cut := maxDescription
		for cut > 0 && !utf8.RuneStart(description[cut]) {
			cut--
		}
		description = description[:cut]
	}

	created, _ := time.Parse(time.RFC3339, video.CreatedTime)

	return record.Candidate{
		ID:          CanonicalID(video.Link),
		Title:       strings.TrimSpace(video.Name),
		Description: description,
		Duration:    video.Duration,
		CreatedAt:   created,
		Views:       video.Stats.Plays,
		Uploader:    strings.TrimSpace(video.User.Name),
		UploaderURI: strings.TrimSpace(video.User.URI),
		SourceURL:   strings.TrimSpace(video.Link),
		Query:       query,
	}
}
