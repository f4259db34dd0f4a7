package state

// #region partial

// Partial is a field-by-field update to a LimbicState. Nil fields are left
// untouched on apply. Posture changes only when explicitly present. External
// JSON may carry fields this struct does not know about; they are ignored at
// the decode boundary rather than rejected, to tolerate schema drift between
// client and backend.
type Partial struct {
	Trust   *float64 `json:"trust,omitempty"`
	Warmth  *float64 `json:"warmth,omitempty"`
	Arousal *float64 `json:"arousal,omitempty"`
	Valence *float64 `json:"valence,omitempty"`
	Posture *Posture `json:"posture,omitempty"`
}

// IsEmpty reports whether the partial carries no recognized fields.
func (p Partial) IsEmpty() bool {
	return p.Trust == nil && p.Warmth == nil && p.Arousal == nil &&
		p.Valence == nil && p.Posture == nil
}

// #endregion partial

// #region normalize

// Clamp01 bounds v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Normalize clamps each present numeric field to [0, 1] and leaves absent
// fields untouched. An invalid posture value is dropped rather than applied.
// Pure: returns a normalized copy, p itself is not modified.
func (p Partial) Normalize() Partial {
	out := Partial{}
	if p.Trust != nil {
		v := Clamp01(*p.Trust)
		out.Trust = &v
	}
	if p.Warmth != nil {
		v := Clamp01(*p.Warmth)
		out.Warmth = &v
	}
	if p.Arousal != nil {
		v := Clamp01(*p.Arousal)
		out.Arousal = &v
	}
	if p.Valence != nil {
		v := Clamp01(*p.Valence)
		out.Valence = &v
	}
	if p.Posture != nil && p.Posture.Valid() {
		v := *p.Posture
		out.Posture = &v
	}
	return out
}

// #endregion normalize

// #region apply

// Apply merges a partial into cur, last write wins per field. Counters and
// timestamps are the store's concern and are carried over unchanged. Pure
// function: cur is replaced, never mutated.
func Apply(cur LimbicState, p Partial) LimbicState {
	next := cur
	norm := p.Normalize()
	if norm.Trust != nil {
		next.Trust = *norm.Trust
	}
	if norm.Warmth != nil {
		next.Warmth = *norm.Warmth
	}
	if norm.Arousal != nil {
		next.Arousal = *norm.Arousal
	}
	if norm.Valence != nil {
		next.Valence = *norm.Valence
	}
	if norm.Posture != nil {
		next.Posture = *norm.Posture
	}
	return next
}

// PartialFrom builds a full-field partial from a snapshot. Used when the
// backend asserts a complete replacement through the delta path.
func PartialFrom(s LimbicState) Partial {
	return Partial{
		Trust:   &s.Trust,
		Warmth:  &s.Warmth,
		Arousal: &s.Arousal,
		Valence: &s.Valence,
		Posture: &s.Posture,
	}
}

// #endregion apply
