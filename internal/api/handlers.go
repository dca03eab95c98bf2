package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/talgya/desk-pet/internal/behavior"
	"github.com/talgya/desk-pet/internal/geom"
	"github.com/talgya/desk-pet/internal/interaction"
	"github.com/talgya/desk-pet/internal/items"
	"github.com/talgya/desk-pet/internal/needs"
	"github.com/talgya/desk-pet/internal/persistence"
	"github.com/talgya/desk-pet/internal/pet"
)

// Wire shapes shared by HTTP handlers and websocket messages.

type hoverRequest struct {
	On bool `json:"on"`
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type windowRequest struct {
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Bounds geom.Rect `json:"bounds"`
}

func (req windowRequest) apply(p *pet.Companion) {
	p.SetWindow(
		geom.Point{X: req.X, Y: req.Y},
		geom.Size{Width: req.Width, Height: req.Height},
		req.Bounds,
	)
}

type stateRequest struct {
	State behavior.State `json:"state"`
}

type emotionRequest struct {
	Emotion    interaction.Emotion `json:"emotion"`
	Text       string              `json:"text,omitempty"`
	DurationMs int64               `json:"duration_ms,omitempty"`
}

type useRequest struct {
	Position *geom.Point `json:"position,omitempty"`
}

// availability is items.Availability with milliseconds on the wire.
type availability struct {
	CanUse              bool   `json:"can_use"`
	Reason              string `json:"reason,omitempty"`
	CooldownRemainingMs int64  `json:"cooldown_remaining_ms,omitempty"`
}

func toAvailability(av items.Availability) availability {
	return availability{
		CanUse:              av.CanUse,
		Reason:              av.Reason,
		CooldownRemainingMs: av.CooldownRemaining.Milliseconds(),
	}
}

// ItemView is one row of GET /api/v1/items.
type ItemView struct {
	Item         items.Definition   `json:"item"`
	Availability availability       `json:"availability"`
	Usage        *items.UsageRecord `json:"usage,omitempty"`
}

// NeedsView is the body of GET /api/v1/needs.
type NeedsView struct {
	Needs     needs.Snapshot  `json:"needs"`
	Condition needs.Condition `json:"condition"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var st pet.Status
	if s.onLoop(w, func() { st = s.Pet.Status() }) {
		writeJSON(w, st)
	}
}

func (s *Server) handleNeeds(w http.ResponseWriter, r *http.Request) {
	var v NeedsView
	ok := s.onLoop(w, func() {
		v = NeedsView{Needs: s.Pet.Needs.Snapshot(), Condition: s.Pet.Needs.OverallCondition()}
	})
	if ok {
		writeJSON(w, v)
	}
}

func (s *Server) handleNeedsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}

	rows, err := s.DB.RecentStatEvents(r.Context(), limit)
	if err != nil {
		slog.Error("stat history query failed", "error", err)
		// Empty array instead of an error; the table may not have data yet.
		writeJSON(w, []persistence.StatEvent{})
		return
	}
	if rows == nil {
		rows = []persistence.StatEvent{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	var out []ItemView
	ok := s.onLoop(w, func() {
		for _, d := range s.Pet.Items.Catalog() {
			v := ItemView{Item: d, Availability: toAvailability(s.Pet.Items.CanUseItem(d.ID))}
			if rec, ok := s.Pet.Items.Usage(d.ID); ok {
				v.Usage = &rec
			}
			out = append(out, v)
		}
	})
	if ok {
		writeJSON(w, out)
	}
}

func (s *Server) handleEffects(w http.ResponseWriter, r *http.Request) {
	var out []items.ActiveEffect
	if s.onLoop(w, func() { out = s.Pet.Items.ActiveEffects() }) {
		writeJSON(w, out)
	}
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var c interaction.Classification
	if s.onLoop(w, func() { c = s.Pet.Click() }) {
		writeJSON(w, c)
	}
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req hoverRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if s.onLoop(w, func() { s.Pet.Hover(req.On) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if s.onLoop(w, func() { s.Pet.PointerMove(geom.Point{X: req.X, Y: req.Y}) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	var req windowRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Width < 0 || req.Height < 0 || req.Bounds.Width < 0 || req.Bounds.Height < 0 {
		http.Error(w, "negative size", http.StatusBadRequest)
		return
	}
	if s.onLoop(w, func() { req.apply(s.Pet) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.State.Valid() {
		http.Error(w, "unknown state: "+string(req.State), http.StatusBadRequest)
		return
	}
	var now behavior.State
	ok := s.onLoop(w, func() {
		s.Pet.SetState(req.State)
		now = s.Pet.Behavior.State()
	})
	if ok {
		writeJSON(w, stateRequest{State: now})
	}
}

func (s *Server) handleEmotion(w http.ResponseWriter, r *http.Request) {
	var req emotionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Emotion == "" {
		http.Error(w, "emotion is required", http.StatusBadRequest)
		return
	}
	var ev interaction.EmotionEvent
	d := time.Duration(req.DurationMs) * time.Millisecond
	if s.onLoop(w, func() { ev = s.Pet.TriggerEmotion(req.Emotion, req.Text, d) }) {
		writeJSON(w, ev)
	}
}

func (s *Server) handleUseItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req useRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	var (
		reaction *items.Reaction
		av       items.Availability
	)
	if !s.onLoop(w, func() { reaction, av = s.Pet.UseItem(id, req.Position) }) {
		return
	}
	switch {
	case reaction != nil:
		writeJSON(w, reaction)
	case errors.Is(av.Err, items.ErrNotFound):
		writeJSONStatus(w, http.StatusNotFound, toAvailability(av))
	default:
		writeJSONStatus(w, http.StatusConflict, toAvailability(av))
	}
}

func (s *Server) handleResetItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var (
		v     ItemView
		found bool
	)
	ok := s.onLoop(w, func() {
		def, exists := s.Pet.Items.Item(id)
		if !exists {
			return
		}
		found = true
		s.Pet.Items.ResetUsage(id)
		v = ItemView{Item: def, Availability: toAvailability(s.Pet.Items.CanUseItem(id))}
	})
	if !ok {
		return
	}
	if !found {
		http.Error(w, "unknown item: "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, v)
}

// handleReset restores default needs and clears item usage. With
// ?history=clear the stat history is dropped too.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	clearHistory := r.URL.Query().Get("history") == "clear"
	if clearHistory && s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	var v NeedsView
	ok := s.onLoop(w, func() {
		s.Pet.Needs.Reset()
		s.Pet.Items.ResetAll()
		v = NeedsView{Needs: s.Pet.Needs.Snapshot(), Condition: s.Pet.Needs.OverallCondition()}
	})
	if !ok {
		return
	}
	if clearHistory {
		// After the reset so its own deltas are dropped too.
		if err := s.DB.ClearStatEvents(r.Context()); err != nil {
			slog.Error("clear stat history failed", "error", err)
			http.Error(w, "clear history failed", http.StatusInternalServerError)
			return
		}
	}
	slog.Info("pet reset via API", "history_cleared", clearHistory)
	writeJSON(w, v)
}
