package app

import (
	"strings"

	"github.com/bft-labs/flashguard/internal/domain"
)

// regulatedExtensions is the allow-list of image and video file extensions
// that must be posted behind a spoiler.
var regulatedExtensions = []string{
	// images
	".jpg", ".jpeg", ".png", ".gif", ".webp",
	// video
	".mp4", ".mov", ".webm", ".mkv", ".avi", ".m4v",
}

// IsRegulatedMedia reports whether the attachment's filename ends with one of
// the regulated media extensions, ignoring case.
func IsRegulatedMedia(a domain.Attachment) bool {
	name := strings.ToLower(a.Filename)
	for _, ext := range regulatedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// RegulatedAttachments returns the subset of attachments that are regulated
// media, preserving order.
func RegulatedAttachments(attachments []domain.Attachment) []domain.Attachment {
	var out []domain.Attachment
	for _, a := range attachments {
		if IsRegulatedMedia(a) {
			out = append(out, a)
		}
	}
	return out
}
