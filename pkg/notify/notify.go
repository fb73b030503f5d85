package notify

import "sync"

// Kind identifies a user-facing notification raised by the engine
type Kind string

const (
	KindAchievementUnlocked Kind = "achievement.unlocked"
	KindDamageTaken         Kind = "player.damage_taken"
	KindHealed              Kind = "player.healed"
	KindGameSaved           Kind = "game.saved"
	KindSaveDeleted         Kind = "game.save_deleted"
	KindSaveFailed          Kind = "game.save_failed"
	KindEndingReached       Kind = "game.ending_reached"
)

// Notification is a one-shot toast for the presentation layer.
// The engine never waits on delivery.
type Notification struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Notifier receives engine notifications
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a plain function to the Notifier interface
type Func func(n Notification)

func (f Func) Notify(n Notification) {
	if f != nil {
		f(n)
	}
}

// Nop discards everything
type Nop struct{}

func (Nop) Notify(Notification) {}

// Multi fans a notification out to several notifiers in order
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(n)
		}
	}
}

// Recorder keeps every notification it receives. Used by tests and by
// presentation layers that drain toasts after each turn.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Ensure Recorder implements Notifier interface
var _ Notifier = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Drain returns the recorded notifications and clears the buffer
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}

// Count returns how many notifications of the given kind were recorded
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.items {
		if it.Kind == kind {
			n++
		}
	}
	return n
}
