package policy

import "fmt"

// Decision is the outcome of evaluating one tree: the terminating action
// node's kind, parameters and optional register target.
type Decision struct {
	Action string
	Params map[string]float64
	Target string
}

// Evaluate walks the tree against the context and returns the decision.
// Evaluation is pure and total: validated trees always reach an Action for
// any context, and nothing is mutated. The defensive panics below are
// unreachable after validation.
func Evaluate(t *Tree, ctx *Context) Decision {
	node := t.Root
	for {
		switch n := node.(type) {
		case *Action:
			return Decision{Action: n.Kind, Params: n.Params, Target: n.Target}
		case *Condition:
			if evalPredicate(n.Predicate, ctx) {
				node = n.OnTrue
			} else {
				node = n.OnFalse
			}
		default:
			panic(fmt.Sprintf("policy: unknown node type %T", node))
		}
	}
}

func evalPredicate(p Predicate, ctx *Context) bool {
	switch pred := p.(type) {
	case *Comparison:
		l := evalOperand(pred.Left, ctx)
		r := evalOperand(pred.Right, ctx)
		switch pred.Op {
		case "eq":
			return l == r
		case "ne":
			return l != r
		case "lt":
			return l < r
		case "le":
			return l <= r
		case "gt":
			return l > r
		case "ge":
			return l >= r
		default:
			panic(fmt.Sprintf("policy: unknown comparison op %q", pred.Op))
		}
	case *Logical:
		switch pred.Op {
		case "and":
			for _, sub := range pred.Operands {
				if !evalPredicate(sub, ctx) {
					return false
				}
			}
			return true
		case "or":
			for _, sub := range pred.Operands {
				if evalPredicate(sub, ctx) {
					return true
				}
			}
			return false
		case "not":
			return !evalPredicate(pred.Operands[0], ctx)
		default:
			panic(fmt.Sprintf("policy: unknown logical op %q", pred.Op))
		}
	default:
		panic(fmt.Sprintf("policy: unknown predicate type %T", p))
	}
}

func evalOperand(o Operand, ctx *Context) float64 {
	switch op := o.(type) {
	case *Literal:
		return op.Value
	case *FieldRef:
		return ctx.Field(op.Name)
	case *ParamRef:
		return ctx.Param(op.Name)
	case *RegisterRef:
		return ctx.Register(op.Name)
	case *Computed:
		l := evalOperand(op.Left, ctx)
		r := evalOperand(op.Right, ctx)
		switch op.Op {
		case "add":
			return l + r
		case "sub":
			return l - r
		case "mul":
			return l * r
		case "div":
			if r == 0 {
				return 0
			}
			return l / r
		default:
			panic(fmt.Sprintf("policy: unknown computed op %q", op.Op))
		}
	default:
		panic(fmt.Sprintf("policy: unknown operand type %T", o))
	}
}
