package timeline

// Phase is the reconciliation state of a local model against the
// authoritative store.
type Phase string

const (
	// PhaseConfirmed means the local model matches the last accepted one.
	PhaseConfirmed Phase = "confirmed"
	// PhaseOptimistic means a locally applied intent is awaiting its ack.
	PhaseOptimistic Phase = "optimistic"
	// PhaseReverted means the ack carried a conflicting model and the local
	// optimistic one was discarded in its favor.
	PhaseReverted Phase = "reverted"
)

// seekTolerance is how far (in seconds) an acked position may sit from the
// optimistic one before the ack counts as a conflicting concurrent intent
// rather than server-clock skew on our own intent.
const seekTolerance = 1.0

// Reconciler drives one client's view of a room timeline. Local intents are
// rendered immediately (optimistic), then confirmed or reverted when the
// authoritative model comes back. All clock input is explicit: the caller
// passes now, taken from its own monotonic session clock.
type Reconciler struct {
	phase Phase
	model Model
}

// NewReconciler starts from a snapshot model, confirmed by definition.
func NewReconciler(snapshot Model) *Reconciler {
	return &Reconciler{
		phase: PhaseConfirmed,
		model: snapshot,
	}
}

func (r *Reconciler) Phase() Phase { return r.phase }

func (r *Reconciler) Model() Model { return r.model }

// Position derives the play-head position to render at instant now.
func (r *Reconciler) Position(now float64) float64 {
	return r.model.Position(now)
}

// ApplyLocal applies a local user intent optimistically and returns the
// model to render while the ack is in flight.
func (r *Reconciler) ApplyLocal(intent Intent, now float64) Model {
	r.model = Apply(r.model, intent, now)
	r.phase = PhaseOptimistic
	return r.model
}

// Ack feeds the authoritative model accepted for our own intent. The
// authoritative model is always adopted (the server timestamps with its own
// clock); the phase records whether our optimistic outcome survived or a
// concurrent conflicting intent won.
func (r *Reconciler) Ack(authoritative Model) Phase {
	if r.phase == PhaseOptimistic && r.matches(authoritative) {
		r.phase = PhaseConfirmed
	} else {
		r.phase = PhaseReverted
	}
	r.model = authoritative
	return r.phase
}

// AdoptRemote applies an accepted model that originated from another
// participant. Any in-flight optimistic intent is superseded: last accepted
// write wins.
func (r *Reconciler) AdoptRemote(authoritative Model) {
	if r.phase == PhaseOptimistic {
		r.phase = PhaseReverted
	} else {
		r.phase = PhaseConfirmed
	}
	r.model = authoritative
}

func (r *Reconciler) matches(authoritative Model) bool {
	if r.model.EpisodeRef != authoritative.EpisodeRef ||
		r.model.Playback != authoritative.Playback ||
		r.model.BufferState != authoritative.BufferState ||
		r.model.PlaybackRate != authoritative.PlaybackRate {
		return false
	}

	// Compare positions at the authoritative timestamp so elapsed play time
	// between the two clocks cancels out.
	diff := r.model.Position(authoritative.Timestamp) - authoritative.SeekTime
	if diff < 0 {
		diff = -diff
	}
	return diff <= seekTolerance
}
