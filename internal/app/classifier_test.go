package app

import (
	"testing"

	"github.com/bft-labs/flashguard/internal/domain"
)

func TestIsRegulatedMedia(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"photo.jpg", true},
		{"photo.JPEG", true},
		{"SPOILER_photo.png", true},
		{"anim.gif", true},
		{"pic.WebP", true},
		{"clip.mp4", true},
		{"clip.MOV", true},
		{"clip.webm", true},
		{"movie.mkv", true},
		{"notes.txt", false},
		{"archive.png.zip", false},
		{"png", false},
		{"", false},
		{"noextension", false},
	}

	for _, tt := range tests {
		got := IsRegulatedMedia(domain.Attachment{Filename: tt.filename})
		if got != tt.want {
			t.Errorf("IsRegulatedMedia(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestRegulatedAttachments_PreservesOrder(t *testing.T) {
	in := []domain.Attachment{
		{Filename: "b.png"},
		{Filename: "readme.md"},
		{Filename: "a.mp4"},
	}

	got := RegulatedAttachments(in)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Filename != "b.png" || got[1].Filename != "a.mp4" {
		t.Errorf("got %v, want [b.png a.mp4]", got)
	}
}

func TestRegulatedAttachments_None(t *testing.T) {
	if got := RegulatedAttachments([]domain.Attachment{{Filename: "a.pdf"}}); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
	if got := RegulatedAttachments(nil); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
