package sim

import "testing"

func arrivalCfg(rate float64) *ArrivalConfig {
	return &ArrivalConfig{
		RatePerTick:       rate,
		AmountDist:        DistSpec{Type: "uniform", Params: map[string]float64{"min": 100, "max": 1000}},
		DeadlineMinOffset: 5,
		DeadlineMaxOffset: 20,
	}
}

// === ArrivalGenerator Tests ===

func TestNewArrivalGenerator_NilForZeroRate(t *testing.T) {
	gen, err := NewArrivalGenerator("bank_a", arrivalCfg(0), []string{"bank_a", "bank_b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen != nil {
		t.Error("zero-rate config should produce no generator")
	}
	gen, err = NewArrivalGenerator("bank_a", nil, []string{"bank_a", "bank_b"})
	if err != nil || gen != nil {
		t.Errorf("nil config: gen=%v err=%v", gen, err)
	}
}

func TestNewArrivalGenerator_NoCounterparties(t *testing.T) {
	if _, err := NewArrivalGenerator("bank_a", arrivalCfg(1), []string{"bank_a"}); err == nil {
		t.Error("single-agent network should be rejected")
	}
}

func TestArrivalGenerator_Deterministic(t *testing.T) {
	// BDD: the same seed yields an identical arrival sequence
	ids := []string{"bank_a", "bank_b", "bank_c"}
	gen1, _ := NewArrivalGenerator("bank_a", arrivalCfg(2), ids)
	gen2, _ := NewArrivalGenerator("bank_a", arrivalCfg(2), ids)
	rng1 := NewStreamRNG(NewRunKey(42))
	rng2 := NewStreamRNG(NewRunKey(42))

	mint := func() func() string {
		n := 0
		return func() string { n++; return string(rune('a' + n)) }
	}
	m1, m2 := mint(), mint()

	for tick := int64(0); tick < 20; tick++ {
		txs1 := gen1.Draw(tick, rng1, m1)
		txs2 := gen2.Draw(tick, rng2, m2)
		if len(txs1) != len(txs2) {
			t.Fatalf("tick %d: counts differ %d vs %d", tick, len(txs1), len(txs2))
		}
		for i := range txs1 {
			if txs1[i].Amount != txs2[i].Amount ||
				txs1[i].ReceiverID != txs2[i].ReceiverID ||
				txs1[i].DeadlineTick != txs2[i].DeadlineTick ||
				txs1[i].Priority != txs2[i].Priority {
				t.Fatalf("tick %d tx %d: sequences diverged", tick, i)
			}
		}
	}
}

func TestArrivalGenerator_DrawProperties(t *testing.T) {
	// BDD: drawn transactions have the sender, a distinct counterparty, a
	// positive amount and a deadline inside the configured window
	ids := []string{"bank_a", "bank_b", "bank_c"}
	gen, _ := NewArrivalGenerator("bank_a", arrivalCfg(3), ids)
	rng := NewStreamRNG(NewRunKey(7))
	mint := func() string { return "tx" }

	found := 0
	for tick := int64(0); tick < 50 && found < 20; tick++ {
		for _, tx := range gen.Draw(tick, rng, mint) {
			found++
			if tx.SenderID != "bank_a" {
				t.Errorf("sender = %s", tx.SenderID)
			}
			if tx.ReceiverID == "bank_a" {
				t.Error("agent chose itself as counterparty")
			}
			if tx.Amount < 100 || tx.Amount > 1000 {
				t.Errorf("amount %d outside configured distribution", tx.Amount)
			}
			offset := tx.DeadlineTick - tick
			if offset < 5 || offset > 20 {
				t.Errorf("deadline offset %d outside [5, 20]", offset)
			}
			if tx.Priority != 5 {
				t.Errorf("default priority = %d, want 5", tx.Priority)
			}
		}
	}
	if found == 0 {
		t.Fatal("no arrivals drawn at rate 3 over 50 ticks")
	}
}

func TestArrivalGenerator_ScaleRate(t *testing.T) {
	gen, _ := NewArrivalGenerator("bank_a", arrivalCfg(2), []string{"bank_a", "bank_b"})
	old, now := gen.ScaleRate(2.5)
	if old != 2 || now != 5 {
		t.Errorf("ScaleRate = (%v, %v), want (2, 5)", old, now)
	}
	if gen.Rate() != 5 {
		t.Errorf("Rate = %v, want 5", gen.Rate())
	}
}

func TestArrivalGenerator_SetDeadlineWindow(t *testing.T) {
	gen, _ := NewArrivalGenerator("bank_a", arrivalCfg(5), []string{"bank_a", "bank_b"})
	gen.SetDeadlineWindow(2, 3)
	rng := NewStreamRNG(NewRunKey(11))
	mint := func() string { return "tx" }
	for tick := int64(0); tick < 20; tick++ {
		for _, tx := range gen.Draw(tick, rng, mint) {
			offset := tx.DeadlineTick - tick
			if offset < 2 || offset > 3 {
				t.Fatalf("deadline offset %d outside new window [2, 3]", offset)
			}
		}
	}
}
