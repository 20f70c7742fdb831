package models

// AnimationTag selects a rendering animation. The set is closed: the
// animation service only knows these values, so unknown tags must be
// clamped before a reply leaves the pipeline.
type AnimationTag string

const (
	AnimationIdle      AnimationTag = "idle"
	AnimationWave      AnimationTag = "wave"
	AnimationTalk      AnimationTag = "talk"
	AnimationThink     AnimationTag = "think"
	AnimationSurprised AnimationTag = "surprised"
	AnimationNod       AnimationTag = "nod"
	AnimationType      AnimationTag = "type"
	AnimationLookAway  AnimationTag = "look_away"
	AnimationGlitch    AnimationTag = "glitch"
)

// MoodTag is the character's declared mood for a reply. Closed set,
// same clamping rule as AnimationTag.
type MoodTag string

const (
	MoodNeutral     MoodTag = "neutral"
	MoodCurious     MoodTag = "curious"
	MoodCryptic     MoodTag = "cryptic"
	MoodMelancholic MoodTag = "melancholic"
	MoodExcited     MoodTag = "excited"
	MoodDistant     MoodTag = "distant"
)

var validAnimations = map[AnimationTag]struct{}{
	AnimationIdle: {}, AnimationWave: {}, AnimationTalk: {},
	AnimationThink: {}, AnimationSurprised: {}, AnimationNod: {},
	AnimationType: {}, AnimationLookAway: {}, AnimationGlitch: {},
}

var validMoods = map[MoodTag]struct{}{
	MoodNeutral: {}, MoodCurious: {}, MoodCryptic: {},
	MoodMelancholic: {}, MoodExcited: {}, MoodDistant: {},
}

// ClampAnimation returns tag if it belongs to the closed animation set,
// otherwise AnimationTalk (the speaking default).
func ClampAnimation(tag string) AnimationTag {
	if _, ok := validAnimations[AnimationTag(tag)]; ok {
		return AnimationTag(tag)
	}
	return AnimationTalk
}

// ClampMood returns tag if it belongs to the closed mood set, otherwise
// MoodNeutral.
func ClampMood(tag string) MoodTag {
	if _, ok := validMoods[MoodTag(tag)]; ok {
		return MoodTag(tag)
	}
	return MoodNeutral
}

// StructuredReply is the pipeline's final output. One is always produced,
// even when the model fails entirely; Animation and Mood are guaranteed
// to be members of the closed sets.
type StructuredReply struct {
	Text        string       `json:"text"`
	Animation   AnimationTag `json:"animation"`
	Mood        MoodTag      `json:"mood"`
	ShouldSpeak bool         `json:"should_speak"`
}
