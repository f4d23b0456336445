package models

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestIdentity(t *testing.T) {
	withID := Post{ID: "17912345", Shortcode: "Cabc123defG"}
	if got := withID.Identity(); got != "17912345" {
		t.Errorf("Identity = %q, want platform ID", got)
	}

	withoutID := Post{Shortcode: "Cabc123defG"}
	if got := withoutID.Identity(); got != "Cabc123defG" {
		t.Errorf("Identity = %q, want shortcode fallback", got)
	}

	empty := Post{}
	if got := empty.Identity(); got != "" {
		t.Errorf("Identity = %q, want empty", got)
	}
}

func TestTruncateCaption(t *testing.T) {
	short := "a short caption"
	if got := TruncateCaption(short); got != short {
		t.Errorf("short caption must pass through unchanged")
	}

	long := strings.Repeat("x", MaxCaptionLength+100)
	got := TruncateCaption(long)
	if len(got) != MaxCaptionLength {
		t.Errorf("truncated length = %d, want %d", len(got), MaxCaptionLength)
	}

	exact := strings.Repeat("y", MaxCaptionLength)
	if got := TruncateCaption(exact); got != exact {
		t.Error("caption at exactly the limit must not be truncated")
	}
}

func TestTruncateCaptionKeepsValidUTF8(t *testing.T) {
	// Pad so a four-byte rune straddles the byte limit.
	long := strings.Repeat("x", MaxCaptionLength-2) + strings.Repeat("\U0001F600", 10)
	got := TruncateCaption(long)

	if !utf8.ValidString(got) {
		t.Errorf("truncated caption is not valid UTF-8: %q", got[len(got)-4:])
	}
	if len(got) > MaxCaptionLength {
		t.Errorf("truncated length = %d, want <= %d", len(got), MaxCaptionLength)
	}
	if len(got) != MaxCaptionLength-2 {
		t.Errorf("cut point = %d, want %d (rune boundary)", len(got), MaxCaptionLength-2)
	}

	multibyte := strings.Repeat("é", MaxCaptionLength)
	if got := TruncateCaption(multibyte); !utf8.ValidString(got) {
		t.Error("two-byte rune caption must stay valid after truncation")
	}
}

func TestSucceeded(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusSuccess, true},
		{StatusPartial, true},
		{StatusBlocked, false},
		{StatusRateLimited, false},
		{StatusFailed, false},
		{StatusTimeout, false},
	}

	for _, tt := range tests {
		r := &StrategyResult{Status: tt.status}
		if got := r.Succeeded(); got != tt.want {
			t.Errorf("Succeeded(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
