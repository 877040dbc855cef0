package reconcile

import "testing"

func TestSwapState_EffectFlipped(t *testing.T) {
	tests := []struct {
		name    string
		preSwap bool
		swap    bool
		want    bool
	}{
		{"no swaps", false, false, false},
		{"liftover swap only", false, true, true},
		{"normalizer swap only", true, false, true},
		{"both swaps cancel", true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SwapState{PreSwap: tt.preSwap, AlleleSwap: tt.swap}
			if got := s.EffectFlipped(); got != tt.want {
				t.Errorf("EffectFlipped() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSwapState_StrandFlipDoesNotAffectDecision(t *testing.T) {
	for _, preSwap := range []bool{false, true} {
		for _, swap := range []bool{false, true} {
			with := SwapState{PreSwap: preSwap, AlleleSwap: swap, StrandFlip: true}
			without := SwapState{PreSwap: preSwap, AlleleSwap: swap, StrandFlip: false}
			if with.EffectFlipped() != without.EffectFlipped() {
				t.Errorf("strand flip changed decision for preswap=%v swap=%v", preSwap, swap)
			}
		}
	}
}

func TestEngineResult_Status(t *testing.T) {
	r := &EngineResult{
		Lifted: map[string]LiftedVariant{
			"rs1": {Chrom: "1", Pos: 500},
		},
		Rejected: map[string]struct{}{
			"rs2": {},
		},
	}

	if got := r.Status("rs1"); got != StatusLifted {
		t.Errorf("Status(rs1) = %v, want lifted", got)
	}
	if got := r.Status("rs2"); got != StatusRejected {
		t.Errorf("Status(rs2) = %v, want rejected", got)
	}
	if got := r.Status("rs3"); got != StatusUnknown {
		t.Errorf("Status(rs3) = %v, want unknown", got)
	}
}
