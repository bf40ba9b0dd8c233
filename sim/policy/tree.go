// Package policy implements the declarative decision-tree policies that
// drive agent behavior each tick. Trees are a closed tagged-union AST,
// validated once at load time and interpreted by one recursive evaluator
// against a read-only context.
package policy

// TreeKind identifies the decision surface a tree serves. Action kinds are
// namespaced per tree kind.
type TreeKind string

const (
	TreePayment            TreeKind = "payment"
	TreeBank               TreeKind = "bank"
	TreeCollateralPost     TreeKind = "collateral_post"
	TreeCollateralWithdraw TreeKind = "collateral_withdraw"
)

// Payment tree actions.
const (
	ActionRelease = "Release"
	ActionHold    = "Hold"
	ActionSplit   = "Split"
)

// Bank tree actions.
const (
	ActionSetReleaseBudget = "SetReleaseBudget"
	ActionSetRegister      = "SetRegister"
	ActionNoOp             = "NoOp"
)

// Collateral tree actions.
const (
	ActionPostCollateral     = "PostCollateral"
	ActionWithdrawCollateral = "WithdrawCollateral"
	ActionHoldCollateral     = "HoldCollateral"
)

// actionsByTree maps each tree kind to its legal action kinds.
var actionsByTree = map[TreeKind]map[string]bool{
	TreePayment: {ActionRelease: true, ActionHold: true, ActionSplit: true},
	TreeBank:    {ActionSetReleaseBudget: true, ActionSetRegister: true, ActionNoOp: true},
	TreeCollateralPost: {
		ActionPostCollateral: true, ActionHoldCollateral: true,
	},
	TreeCollateralWithdraw: {
		ActionWithdrawCollateral: true, ActionHoldCollateral: true,
	},
}

// Node is either a Condition or an Action. The union is closed: the parser
// can produce nothing else, and the validator rejects anything malformed.
type Node interface {
	nodeID() string
}

// Condition evaluates a predicate and recurses into one of two subtrees.
type Condition struct {
	ID        string
	Predicate Predicate
	OnTrue    Node
	OnFalse   Node
}

func (c *Condition) nodeID() string { return c.ID }

// Action terminates evaluation with a namespaced action kind and parameters.
// Target names a state register for ActionSetRegister; empty otherwise.
type Action struct {
	ID     string
	Kind   string
	Params map[string]float64
	Target string
}

func (a *Action) nodeID() string { return a.ID }

// Predicate is a boolean expression over operands: a comparison or a logical
// combination.
type Predicate interface {
	isPredicate()
}

// Comparison predicate operators.
var validComparisonOps = map[string]bool{
	"eq": true, "ne": true, "lt": true, "le": true, "gt": true, "ge": true,
}

// Comparison compares two operand values.
type Comparison struct {
	Op    string
	Left  Operand
	Right Operand
}

func (*Comparison) isPredicate() {}

// Logical operators. "not" takes exactly one operand.
var validLogicalOps = map[string]bool{
	"and": true, "or": true, "not": true,
}

// Logical combines sub-predicates.
type Logical struct {
	Op       string
	Operands []Predicate
}

func (*Logical) isPredicate() {}

// Operand yields a numeric value from the evaluation context.
type Operand interface {
	isOperand()
}

// FieldRef reads a named context field (agent, transaction, queue, cost or
// time field).
type FieldRef struct {
	Name string
}

func (*FieldRef) isOperand() {}

// ParamRef reads a named policy parameter.
type ParamRef struct {
	Name string
}

func (*ParamRef) isOperand() {}

// RegisterRef reads a per-agent persistent state register. Unset registers
// read as zero.
type RegisterRef struct {
	Name string
}

func (*RegisterRef) isOperand() {}

// Literal is a constant value.
type Literal struct {
	Value float64
}

func (*Literal) isOperand() {}

// Computed arithmetic operators.
var validComputedOps = map[string]bool{
	"add": true, "sub": true, "mul": true, "div": true,
}

// Computed combines two operands arithmetically.
type Computed struct {
	Op    string
	Left  Operand
	Right Operand
}

func (*Computed) isOperand() {}

// Tree is one validated decision tree.
type Tree struct {
	Kind TreeKind
	Root Node
}

// TreeSet is an agent's full policy: one tree per decision surface plus the
// named parameters referenced by ParamRef operands. Trees may be nil, in
// which case the engine applies that surface's default action (Release,
// NoOp, HoldCollateral).
type TreeSet struct {
	Parameters         map[string]float64
	Payment            *Tree
	Bank               *Tree
	CollateralPost     *Tree
	CollateralWithdraw *Tree
}

// trees returns the non-nil trees with their kinds for validation walks.
func (ts *TreeSet) trees() []*Tree {
	var out []*Tree
	for _, t := range []*Tree{ts.Payment, ts.Bank, ts.CollateralPost, ts.CollateralWithdraw} {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
