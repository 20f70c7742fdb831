package models

import "testing"

func TestClampAnimation(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want AnimationTag
	}{
		{"known value", "wave", AnimationWave},
		{"known value glitch", "glitch", AnimationGlitch},
		{"unknown value", "backflip", AnimationTalk},
		{"empty", "", AnimationTalk},
		{"case sensitive", "Wave", AnimationTalk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampAnimation(tt.in); got != tt.want {
				t.Errorf("ClampAnimation(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClampMood(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want MoodTag
	}{
		{"known value", "cryptic", MoodCryptic},
		{"known value distant", "distant", MoodDistant},
		{"unknown value", "furious", MoodNeutral},
		{"empty", "", MoodNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampMood(tt.in); got != tt.want {
				t.Errorf("ClampMood(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMessageAnonymous(t *testing.T) {
	if !(Message{Text: "hi"}).Anonymous() {
		t.Error("message without sender should be anonymous")
	}
	if (Message{Text: "hi", SenderID: "aaaaa-bbbbb"}).Anonymous() {
		t.Error("message with sender should not be anonymous")
	}
}
