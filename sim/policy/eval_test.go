package policy

import "testing"

func ctxWith(fields map[string]float64) *Context {
	return &Context{Fields: fields, Params: map[string]float64{}, Registers: map[string]float64{}}
}

// === Evaluate Tests ===

func TestEvaluate_ActionRoot(t *testing.T) {
	tree := &Tree{Kind: TreePayment, Root: &Action{ID: "r", Kind: ActionRelease, Params: map[string]float64{}}}
	d := Evaluate(tree, ctxWith(nil))
	if d.Action != ActionRelease {
		t.Errorf("action = %s, want Release", d.Action)
	}
}

func TestEvaluate_ConditionBranches(t *testing.T) {
	tree := &Tree{Kind: TreePayment, Root: &Condition{
		ID: "c",
		Predicate: &Comparison{
			Op:    "gt",
			Left:  &FieldRef{Name: "available_liquidity"},
			Right: &FieldRef{Name: "tx_remaining"},
		},
		OnTrue:  &Action{ID: "rel", Kind: ActionRelease, Params: map[string]float64{}},
		OnFalse: &Action{ID: "hold", Kind: ActionHold, Params: map[string]float64{}},
	}}

	tests := []struct {
		name      string
		liquidity float64
		remaining float64
		want      string
	}{
		{"ample liquidity releases", 1000, 400, ActionRelease},
		{"short liquidity holds", 300, 400, ActionHold},
		{"exact boundary holds", 400, 400, ActionHold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tree, ctxWith(map[string]float64{
				"available_liquidity": tt.liquidity,
				"tx_remaining":        tt.remaining,
			}))
			if d.Action != tt.want {
				t.Errorf("action = %s, want %s", d.Action, tt.want)
			}
		})
	}
}

func TestEvaluate_LogicalOperators(t *testing.T) {
	pred := func(op string, subs ...Predicate) Predicate {
		return &Logical{Op: op, Operands: subs}
	}
	truthy := &Comparison{Op: "eq", Left: &Literal{Value: 1}, Right: &Literal{Value: 1}}
	falsy := &Comparison{Op: "eq", Left: &Literal{Value: 1}, Right: &Literal{Value: 2}}

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"and all true", pred("and", truthy, truthy), true},
		{"and one false", pred("and", truthy, falsy), false},
		{"or one true", pred("or", falsy, truthy), true},
		{"or all false", pred("or", falsy, falsy), false},
		{"not true", pred("not", truthy), false},
		{"not false", pred("not", falsy), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalPredicate(tt.p, ctxWith(nil)); got != tt.want {
				t.Errorf("predicate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_ComputedOperands(t *testing.T) {
	tests := []struct {
		name string
		op   string
		l, r float64
		want float64
	}{
		{"add", "add", 3, 4, 7},
		{"sub", "sub", 3, 4, -1},
		{"mul", "mul", 3, 4, 12},
		{"div", "div", 8, 4, 2},
		{"div by zero is zero", "div", 8, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &Computed{Op: tt.op, Left: &Literal{Value: tt.l}, Right: &Literal{Value: tt.r}}
			if got := evalOperand(op, ctxWith(nil)); got != tt.want {
				t.Errorf("%s(%g, %g) = %g, want %g", tt.op, tt.l, tt.r, got, tt.want)
			}
		})
	}
}

func TestEvaluate_ParamAndRegisterRefs(t *testing.T) {
	// BDD: params come from the tree set, registers from the agent; unset
	// registers read as zero
	ctx := &Context{
		Fields:    map[string]float64{},
		Params:    map[string]float64{"threshold": 250},
		Registers: map[string]float64{"streak": 3},
	}
	if got := evalOperand(&ParamRef{Name: "threshold"}, ctx); got != 250 {
		t.Errorf("param = %g, want 250", got)
	}
	if got := evalOperand(&RegisterRef{Name: "streak"}, ctx); got != 3 {
		t.Errorf("register = %g, want 3", got)
	}
	if got := evalOperand(&RegisterRef{Name: "unset"}, ctx); got != 0 {
		t.Errorf("unset register = %g, want 0", got)
	}
}

func TestEvaluate_DecisionCarriesParamsAndTarget(t *testing.T) {
	tree := &Tree{Kind: TreeBank, Root: &Action{
		ID: "s", Kind: ActionSetRegister, Params: map[string]float64{"value": 7}, Target: "mood",
	}}
	d := Evaluate(tree, ctxWith(nil))
	if d.Target != "mood" || d.Params["value"] != 7 {
		t.Errorf("decision = %+v", d)
	}
}

// === Builtin Tests ===

func TestNewBuiltin_Fifo(t *testing.T) {
	for _, name := range []string{"", "fifo"} {
		ts, err := NewBuiltin(name)
		if err != nil {
			t.Fatalf("NewBuiltin(%q) failed: %v", name, err)
		}
		d := Evaluate(ts.Payment, ctxWith(nil))
		if d.Action != ActionRelease {
			t.Errorf("fifo policy decided %s, want Release", d.Action)
		}
	}
}

func TestNewBuiltin_Deadline(t *testing.T) {
	ts, err := NewBuiltin("deadline")
	if err != nil {
		t.Fatalf("NewBuiltin failed: %v", err)
	}

	tests := []struct {
		name   string
		fields map[string]float64
		want   string
	}{
		{
			"urgent deadline releases",
			map[string]float64{"tx_ticks_to_deadline": 3, "available_liquidity": 0, "tx_remaining": 100},
			ActionRelease,
		},
		{
			"ample liquidity releases",
			map[string]float64{"tx_ticks_to_deadline": 50, "available_liquidity": 500, "tx_remaining": 100},
			ActionRelease,
		},
		{
			"neither condition holds",
			map[string]float64{"tx_ticks_to_deadline": 50, "available_liquidity": 150, "tx_remaining": 100},
			ActionHold,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(ts.Payment, &Context{Fields: tt.fields, Params: ts.Parameters, Registers: map[string]float64{}})
			if d.Action != tt.want {
				t.Errorf("action = %s, want %s", d.Action, tt.want)
			}
		})
	}
}

func TestNewBuiltin_Unknown(t *testing.T) {
	if _, err := NewBuiltin("lifo"); err == nil {
		t.Error("unknown builtin accepted")
	}
}
