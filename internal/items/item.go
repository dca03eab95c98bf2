// Package items holds the static item catalog and the engine that applies
// item effects, enforcing per-item cooldowns and usage limits.
package items

import (
	"time"

	"github.com/talgya/desk-pet/internal/geom"
)

// Type groups items for display.
type Type string

const (
	TypeFood    Type = "food"
	TypeToy     Type = "toy"
	TypeCare    Type = "care"
	TypeSpecial Type = "special"
)

// Rarity is cosmetic.
type Rarity string

const (
	Common    Rarity = "common"
	Uncommon  Rarity = "uncommon"
	Rare      Rarity = "rare"
	Legendary Rarity = "legendary"
)

// EffectType names what an effect does when the item is used.
type EffectType string

const (
	EffectHappinessIncrease  EffectType = "happiness_increase"
	EffectMoodChange         EffectType = "mood_change"
	EffectEnergyBoost        EffectType = "energy_boost"
	EffectHungerRestore      EffectType = "hunger_restore"
	EffectHealthRestore      EffectType = "health_restore"
	EffectCleanlinessRestore EffectType = "cleanliness_restore"
	EffectTextDisplay        EffectType = "text_display"
	EffectStateChange        EffectType = "state_change"
	EffectAnimationTrigger   EffectType = "animation_trigger"
	EffectSoundPlay          EffectType = "sound_play"
)

// Timed reports whether an effect of this type with a duration is kept as
// an active effect.
func (t EffectType) Timed() bool {
	switch t {
	case EffectHappinessIncrease, EffectMoodChange, EffectEnergyBoost:
		return true
	}
	return false
}

// AffectsStats reports whether the effect changes a needs resource.
func (t EffectType) AffectsStats() bool {
	switch t {
	case EffectHappinessIncrease, EffectMoodChange, EffectEnergyBoost,
		EffectHungerRestore, EffectHealthRestore, EffectCleanlinessRestore:
		return true
	}
	return false
}

// Effect is one entry of an item's effect list. Numeric effects use Value;
// text, animation and sound effects use Text.
type Effect struct {
	Type     EffectType    `json:"type"`
	Value    float64       `json:"value,omitempty"`
	Text     string        `json:"text,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Definition is an immutable catalog entry. Zero Cooldown or UsageLimit
// means none.
type Definition struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Type       Type          `json:"type"`
	Rarity     Rarity        `json:"rarity"`
	Effects    []Effect      `json:"effects"`
	Cooldown   time.Duration `json:"cooldown,omitempty"`
	UsageLimit int           `json:"usage_limit,omitempty"`
}

// UsageRecord tracks how often an item has been used.
type UsageRecord struct {
	ItemID     string    `json:"item_id"`
	UsageCount int       `json:"usage_count"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// ActiveEffect is a timed effect kept until ExpiresAt.
type ActiveEffect struct {
	Key       string    `json:"key"`
	ItemID    string    `json:"item_id"`
	Effect    Effect    `json:"effect"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Reaction is what the pet does in response to an item.
type Reaction struct {
	ID          string        `json:"id"`
	ItemID      string        `json:"item_id"`
	Message     string        `json:"message,omitempty"`
	Animation   string        `json:"animation,omitempty"`
	Sound       string        `json:"sound,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"` // longest text or animation duration
	Position    *geom.Point   `json:"position,omitempty"`
	StatEffects []Effect      `json:"stat_effects,omitempty"`
	At          time.Time     `json:"at"`
}

// DefaultCatalog returns the built-in items.
func DefaultCatalog() []Definition {
	return []Definition{
		{
			ID: "fish", Name: "お魚", Type: TypeFood, Rarity: Common,
			Effects: []Effect{
				{Type: EffectHappinessIncrease, Value: 20, Duration: 5 * time.Second},
				{Type: EffectTextDisplay, Text: "おいしい！", Duration: 3 * time.Second},
			},
		},
		{
			ID: "apple", Name: "りんご", Type: TypeFood, Rarity: Common,
			Effects: []Effect{
				{Type: EffectHungerRestore, Value: 15},
				{Type: EffectTextDisplay, Text: "シャキシャキ！", Duration: 3 * time.Second},
			},
			Cooldown: 10 * time.Second,
		},
		{
			ID: "cake", Name: "ケーキ", Type: TypeFood, Rarity: Uncommon,
			Effects: []Effect{
				{Type: EffectHungerRestore, Value: 30},
				{Type: EffectHappinessIncrease, Value: 10, Duration: 10 * time.Second},
				{Type: EffectAnimationTrigger, Text: "jump", Duration: 2 * time.Second},
				{Type: EffectTextDisplay, Text: "あま〜い！", Duration: 3 * time.Second},
			},
			Cooldown: 5 * time.Minute,
		},
		{
			ID: "ball", Name: "ボール", Type: TypeToy, Rarity: Common,
			Effects: []Effect{
				{Type: EffectHappinessIncrease, Value: 15, Duration: 10 * time.Second},
				{Type: EffectEnergyBoost, Value: -5},
				{Type: EffectAnimationTrigger, Text: "play", Duration: 3 * time.Second},
				{Type: EffectSoundPlay, Text: "bounce"},
			},
			Cooldown: 30 * time.Second,
		},
		{
			ID: "music_box", Name: "オルゴール", Type: TypeToy, Rarity: Uncommon,
			Effects: []Effect{
				{Type: EffectMoodChange, Value: 10, Duration: 30 * time.Second},
				{Type: EffectStateChange, Text: "dance", Duration: 5 * time.Second},
				{Type: EffectSoundPlay, Text: "melody"},
			},
			Cooldown: time.Minute,
		},
		{
			ID: "coffee", Name: "コーヒー", Type: TypeFood, Rarity: Common,
			Effects: []Effect{
				{Type: EffectEnergyBoost, Value: 20, Duration: time.Minute},
				{Type: EffectTextDisplay, Text: "目が覚めた！", Duration: 3 * time.Second},
			},
			Cooldown: 2 * time.Minute,
		},
		{
			ID: "soap", Name: "せっけん", Type: TypeCare, Rarity: Common,
			Effects: []Effect{
				{Type: EffectCleanlinessRestore, Value: 30},
				{Type: EffectAnimationTrigger, Text: "bubbles", Duration: 3 * time.Second},
				{Type: EffectTextDisplay, Text: "さっぱり！", Duration: 3 * time.Second},
			},
			Cooldown: time.Minute,
		},
		{
			ID: "medicine", Name: "おくすり", Type: TypeCare, Rarity: Rare,
			Effects: []Effect{
				{Type: EffectHealthRestore, Value: 25},
				{Type: EffectHappinessIncrease, Value: -5},
				{Type: EffectTextDisplay, Text: "にがい…", Duration: 3 * time.Second},
			},
			Cooldown:   5 * time.Minute,
			UsageLimit: 3,
		},
		{
			ID: "golden_star", Name: "金の星", Type: TypeSpecial, Rarity: Legendary,
			Effects: []Effect{
				{Type: EffectHappinessIncrease, Value: 50, Duration: time.Minute},
				{Type: EffectStateChange, Text: "sparkle", Duration: 5 * time.Second},
				{Type: EffectSoundPlay, Text: "fanfare"},
				{Type: EffectTextDisplay, Text: "キラキラ！宝物だ！", Duration: 5 * time.Second},
			},
			UsageLimit: 1,
		},
	}
}
