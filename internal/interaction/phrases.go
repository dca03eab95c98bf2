package interaction

import "time"

var clickMessages = map[Pattern][]string{
	PatternClick: {
		"なあに？",
		"呼んだ？",
		"えへへ",
		"こんにちは！",
	},
	PatternDoubleClick: {
		"わっ、びっくりした！",
		"ダブルクリック！",
		"二回も押したね",
	},
	PatternTripleClick: {
		"トリプル！すごい！",
		"三回連続だ！",
		"なにか見つけた？",
	},
	PatternRapidClick: {
		"くすぐったいよ〜！",
		"目が回る〜",
		"ちょっと落ち着いて！",
	},
	PatternLongPress: {
		"ぎゅーってしてくれるの？",
		"あったかい…",
		"ずっと押してるね",
	},
}

// Emotion names the pet's current mood for the speech bubble.
type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionEnergetic Emotion = "energetic"
	EmotionCurious   Emotion = "curious"
	EmotionCalm      Emotion = "calm"
	EmotionPlayful   Emotion = "playful"
	EmotionRelaxed   Emotion = "relaxed"
	EmotionSleepy    Emotion = "sleepy"
	EmotionDreamy    Emotion = "dreamy"
	EmotionFestive   Emotion = "festive"
	EmotionLoving    Emotion = "loving"
	EmotionSpooky    Emotion = "spooky"
	EmotionGrateful  Emotion = "grateful"
)

// TimeOfDay is one of the four hour buckets.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// BucketFor maps an hour (0-23) to its bucket: morning 6-11, afternoon
// 12-17, evening 18-22, night 23-5.
func BucketFor(hour int) TimeOfDay {
	switch {
	case hour >= 6 && hour <= 11:
		return Morning
	case hour >= 12 && hour <= 17:
		return Afternoon
	case hour >= 18 && hour <= 22:
		return Evening
	default:
		return Night
	}
}

var bucketEmotions = map[TimeOfDay][]Emotion{
	Morning:   {EmotionEnergetic, EmotionHappy, EmotionCurious},
	Afternoon: {EmotionPlayful, EmotionCalm, EmotionCurious},
	Evening:   {EmotionRelaxed, EmotionCalm, EmotionLoving},
	Night:     {EmotionSleepy, EmotionDreamy},
}

// specialDates is keyed by MM-DD.
var specialDates = map[string][]Emotion{
	"01-01": {EmotionFestive, EmotionHappy},
	"02-14": {EmotionLoving},
	"03-03": {EmotionFestive},
	"04-01": {EmotionPlayful},
	"07-07": {EmotionDreamy, EmotionLoving},
	"10-31": {EmotionSpooky, EmotionPlayful},
	"11-23": {EmotionGrateful},
	"12-24": {EmotionFestive, EmotionLoving},
	"12-25": {EmotionFestive, EmotionHappy},
	"12-31": {EmotionCalm, EmotionGrateful},
}

var emotionPhrases = map[Emotion][]string{
	EmotionHappy:     {"今日はいい日だね！", "なんだか嬉しいな", "ルンルン♪"},
	EmotionEnergetic: {"おはよう！元気いっぱい！", "今日もがんばろう！", "朝ごはん食べた？"},
	EmotionCurious:   {"何してるの？", "それなあに？", "気になる〜"},
	EmotionCalm:      {"のんびりしよう", "ふぅ…いい感じ", "お茶でも飲む？"},
	EmotionPlayful:   {"遊ぼうよ！", "かくれんぼしよう！", "つかまえてみて！"},
	EmotionRelaxed:   {"今日もおつかれさま", "ゆっくり休んでね", "いい夕方だね"},
	EmotionSleepy:    {"ふわぁ…眠い…", "もう寝る時間だよ", "夜更かしはだめだよ"},
	EmotionDreamy:    {"星がきれい…", "いい夢見られるかな", "むにゃむにゃ…"},
	EmotionFestive:   {"お祝いだ！", "今日は特別な日！", "わーい！"},
	EmotionLoving:    {"いつもありがとう", "だいすき！", "そばにいてくれて嬉しい"},
	EmotionSpooky:    {"トリック・オア・トリート！", "おばけだぞ〜", "お菓子ちょうだい！"},
	EmotionGrateful:  {"いつもありがとう！", "感謝の気持ちでいっぱい", "今年もありがとう"},
}

var defaultPhrases = []string{"…", "ふんふん", "なにかな？"}

// Phrases returns the phrase table for e, or the default list when e is
// unknown.
func Phrases(e Emotion) []string {
	if p, ok := emotionPhrases[e]; ok && len(p) > 0 {
		return p
	}
	return defaultPhrases
}

// CandidateEmotions returns the emotion set for the given local time:
// the special-date set when the calendar day has one, else the hour bucket.
func CandidateEmotions(t time.Time) []Emotion {
	if set, ok := specialDates[t.Format("01-02")]; ok {
		return set
	}
	return bucketEmotions[BucketFor(t.Hour())]
}
