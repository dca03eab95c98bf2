package interaction

import (
	"encoding/json"
	"time"

	"github.com/talgya/desk-pet/internal/entropy"
)

// EmotionEvent is a mood notification for the speech bubble. Duration is
// encoded in milliseconds.
type EmotionEvent struct {
	Emotion  Emotion       `json:"emotion"`
	Text     string        `json:"text"`
	Duration time.Duration `json:"duration"`
	Special  bool          `json:"special,omitempty"`
	At       time.Time     `json:"at"`
}

func (e EmotionEvent) MarshalJSON() ([]byte, error) {
	type alias EmotionEvent
	return json.Marshal(struct {
		alias
		Duration int64 `json:"duration"`
	}{alias(e), e.Duration.Milliseconds()})
}

func (e *EmotionEvent) UnmarshalJSON(b []byte) error {
	type alias EmotionEvent
	aux := struct {
		*alias
		Duration int64 `json:"duration"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.Duration = time.Duration(aux.Duration) * time.Millisecond
	return nil
}

// Start emits an emotion immediately and then every EmotionInterval.
func (d *Detector) Start() {
	if d.closed {
		return
	}
	d.emitEmotion()
	d.tasks.Replace(taskEmotion, d.sched.Every(d.cfg.EmotionInterval, d.emitEmotion))
}

func (d *Detector) emitEmotion() {
	now := d.sched.Now().In(d.cfg.Location)
	e := entropy.Pick(d.rnd, CandidateEmotions(now))
	d.emotions.Notify(EmotionEvent{
		Emotion:  e,
		Text:     entropy.Pick(d.rnd, Phrases(e)),
		Duration: d.cfg.EmotionDuration,
		At:       now,
	})
}

// TriggerSpecialEmotion emits an emotion immediately, bypassing the
// schedule. Empty text draws from the phrase table; a non-positive duration
// uses the configured default.
func (d *Detector) TriggerSpecialEmotion(e Emotion, text string, duration time.Duration) EmotionEvent {
	if text == "" {
		text = entropy.Pick(d.rnd, Phrases(e))
	}
	if duration <= 0 {
		duration = d.cfg.EmotionDuration
	}
	ev := EmotionEvent{
		Emotion:  e,
		Text:     text,
		Duration: duration,
		Special:  true,
		At:       d.sched.Now(),
	}
	d.emotions.Notify(ev)
	return ev
}
