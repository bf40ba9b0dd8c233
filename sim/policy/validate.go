package policy

import (
	"fmt"
	"strings"
)

// ValidationError aggregates every violation found in one validation pass.
// Policy load never stops at the first problem: a tree author gets the full
// list at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("policy validation failed with %d violation(s):\n  - %s",
		len(e.Violations), strings.Join(e.Violations, "\n  - "))
}

// validator accumulates violations while walking a tree set.
type treeValidator struct {
	params     map[string]float64
	violations []string
	seenIDs    map[string]string // node id -> tree kind that first used it
}

func (v *treeValidator) addf(format string, args ...any) {
	v.violations = append(v.violations, fmt.Sprintf(format, args...))
}

// ValidateTreeSet walks every tree and returns a *ValidationError listing
// all violations, or nil if the set is well-formed. Checked per node:
// unknown field/action/parameter/register references, actions illegal for
// the tree kind, out-of-bounds action parameters, dangling child references,
// duplicate node IDs across the whole set.
func ValidateTreeSet(ts *TreeSet) *ValidationError {
	v := &treeValidator{params: ts.Parameters, seenIDs: make(map[string]string)}
	for _, tree := range ts.trees() {
		if tree.Root == nil {
			v.addf("%s tree: empty root", tree.Kind)
			continue
		}
		v.walkNode(tree.Kind, tree.Root)
	}
	if len(v.violations) > 0 {
		return &ValidationError{Violations: v.violations}
	}
	return nil
}

func (v *treeValidator) walkNode(kind TreeKind, node Node) {
	if node == nil {
		v.addf("%s tree: dangling child reference (nil node)", kind)
		return
	}
	id := node.nodeID()
	if id == "" {
		v.addf("%s tree: node without id", kind)
	} else if prev, dup := v.seenIDs[id]; dup {
		v.addf("%s tree: duplicate node id %q (first used in %s tree)", kind, id, prev)
	} else {
		v.seenIDs[id] = string(kind)
	}

	switch n := node.(type) {
	case *Condition:
		v.walkPredicate(kind, id, n.Predicate)
		v.walkNode(kind, n.OnTrue)
		v.walkNode(kind, n.OnFalse)
	case *Action:
		v.checkAction(kind, n)
	default:
		v.addf("%s tree: node %q has unknown type %T", kind, id, node)
	}
}

func (v *treeValidator) checkAction(kind TreeKind, a *Action) {
	legal := actionsByTree[kind]
	if !legal[a.Kind] {
		known := false
		for _, actions := range actionsByTree {
			if actions[a.Kind] {
				known = true
				break
			}
		}
		if known {
			v.addf("%s tree: node %q: action %q is not valid for this tree type", kind, a.ID, a.Kind)
		} else {
			v.addf("%s tree: node %q: unknown action %q", kind, a.ID, a.Kind)
		}
		return
	}
	switch a.Kind {
	case ActionSplit:
		frac, ok := a.Params["fraction"]
		if !ok {
			v.addf("payment tree: node %q: Split requires parameter \"fraction\"", a.ID)
		} else if frac <= 0 || frac >= 1 {
			v.addf("payment tree: node %q: Split fraction %g out of bounds (0, 1)", a.ID, frac)
		}
	case ActionSetReleaseBudget:
		amount, ok := a.Params["amount"]
		if !ok {
			v.addf("bank tree: node %q: SetReleaseBudget requires parameter \"amount\"", a.ID)
		} else if amount < 0 {
			v.addf("bank tree: node %q: SetReleaseBudget amount %g must be non-negative", a.ID, amount)
		}
	case ActionSetRegister:
		if a.Target == "" {
			v.addf("bank tree: node %q: SetRegister requires a target register name", a.ID)
		}
		if _, ok := a.Params["value"]; !ok {
			v.addf("bank tree: node %q: SetRegister requires parameter \"value\"", a.ID)
		}
	case ActionPostCollateral, ActionWithdrawCollateral:
		amount, ok := a.Params["amount"]
		if !ok {
			v.addf("%s tree: node %q: %s requires parameter \"amount\"", kind, a.ID, a.Kind)
		} else if amount <= 0 {
			v.addf("%s tree: node %q: %s amount %g must be positive", kind, a.ID, a.Kind, amount)
		}
	}
}

func (v *treeValidator) walkPredicate(kind TreeKind, nodeID string, p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addf("%s tree: node %q: missing predicate", kind, nodeID)
	case *Comparison:
		if !validComparisonOps[pred.Op] {
			v.addf("%s tree: node %q: unknown comparison operator %q", kind, nodeID, pred.Op)
		}
		v.walkOperand(kind, nodeID, pred.Left)
		v.walkOperand(kind, nodeID, pred.Right)
	case *Logical:
		if !validLogicalOps[pred.Op] {
			v.addf("%s tree: node %q: unknown logical operator %q", kind, nodeID, pred.Op)
		}
		if pred.Op == "not" && len(pred.Operands) != 1 {
			v.addf("%s tree: node %q: \"not\" takes exactly one operand, got %d", kind, nodeID, len(pred.Operands))
		}
		if len(pred.Operands) == 0 {
			v.addf("%s tree: node %q: logical %q has no operands", kind, nodeID, pred.Op)
		}
		for _, sub := range pred.Operands {
			v.walkPredicate(kind, nodeID, sub)
		}
	default:
		v.addf("%s tree: node %q: unknown predicate type %T", kind, nodeID, p)
	}
}

func (v *treeValidator) walkOperand(kind TreeKind, nodeID string, o Operand) {
	switch op := o.(type) {
	case nil:
		v.addf("%s tree: node %q: missing operand", kind, nodeID)
	case *Literal:
	case *RegisterRef:
		if op.Name == "" {
			v.addf("%s tree: node %q: empty register reference", kind, nodeID)
		}
	case *FieldRef:
		if !ValidFields[op.Name] {
			v.addf("%s tree: node %q: unknown field %q", kind, nodeID, op.Name)
		}
	case *ParamRef:
		if _, ok := v.params[op.Name]; !ok {
			v.addf("%s tree: node %q: reference to undeclared parameter %q", kind, nodeID, op.Name)
		}
	case *Computed:
		if !validComputedOps[op.Op] {
			v.addf("%s tree: node %q: unknown arithmetic operator %q", kind, nodeID, op.Op)
		}
		v.walkOperand(kind, nodeID, op.Left)
		v.walkOperand(kind, nodeID, op.Right)
	default:
		v.addf("%s tree: node %q: unknown operand type %T", kind, nodeID, o)
	}
}
