package odds

import (
	"encoding/json"
	"math"
)

// Result pairs a probability with its "1 in X" ratio.
// OneInX is +Inf when Percent is 0.
type Result struct {
	Percent float64
	OneInX  float64
}

// NewResult builds a Result from a probability. NaN and negative inputs
// are treated as 0.
func NewResult(p float64) Result {
	if math.IsNaN(p) || p < 0 {
		p = 0
	}
	return Result{Percent: p, OneInX: ToOneInX(p)}
}

// HasOdds reports whether the result carries a meaningful chance.
func (r Result) HasOdds() bool {
	return r.Percent > 0 && !math.IsInf(r.OneInX, 0)
}

// DisplayOneInX returns the ratio for display. ok is false when there are
// no odds to show.
func (r Result) DisplayOneInX() (value float64, ok bool) {
	if !r.HasOdds() {
		return 0, false
	}
	return r.OneInX, true
}

// OneInXOrSentinel returns the ratio, or NoOddsSentinel when there are no
// odds.
func (r Result) OneInXOrSentinel() float64 {
	if v, ok := r.DisplayOneInX(); ok {
		return v
	}
	return NoOddsSentinel
}

type resultJSON struct {
	Percent float64  `json:"percent"`
	OneInX  *float64 `json:"one_in_x"`
}

// MarshalJSON encodes one_in_x as null when there are no odds; JSON has
// no Infinity.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Percent: r.Percent}
	if v, ok := r.DisplayOneInX(); ok {
		out.OneInX = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a Result; a null one_in_x decodes to +Inf.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = NewResult(in.Percent)
	return nil
}
