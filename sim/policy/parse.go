package policy

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compiledSchema is built once at package init; the schema is a constant so
// compilation cannot fail at runtime.
var compiledSchema = jsonschema.MustCompileString("treeset.schema.json", treeSetSchema)

// rawTreeSet mirrors the JSON document shape.
type rawTreeSet struct {
	Parameters         map[string]float64 `json:"parameters"`
	Payment            json.RawMessage    `json:"payment_tree"`
	Bank               json.RawMessage    `json:"bank_tree"`
	CollateralPost     json.RawMessage    `json:"collateral_post_tree"`
	CollateralWithdraw json.RawMessage    `json:"collateral_withdraw_tree"`
}

type rawNode struct {
	ID        string             `json:"id"`
	Type      string             `json:"type"`
	Predicate json.RawMessage    `json:"predicate"`
	OnTrue    json.RawMessage    `json:"on_true"`
	OnFalse   json.RawMessage    `json:"on_false"`
	Action    string             `json:"action"`
	Params    map[string]float64 `json:"params"`
	Target    string             `json:"target"`
}

type rawPredicate struct {
	Op       string            `json:"op"`
	Left     json.RawMessage   `json:"left"`
	Right    json.RawMessage   `json:"right"`
	Operands []json.RawMessage `json:"operands"`
}

type rawOperand struct {
	Field    *string         `json:"field"`
	Param    *string         `json:"param"`
	Register *string         `json:"register"`
	Value    *float64        `json:"value"`
	Op       string          `json:"op"`
	Left     json.RawMessage `json:"left"`
	Right    json.RawMessage `json:"right"`
}

// LoadTreeSet parses, schema-checks and semantically validates a policy
// tree-set JSON document. On semantic failure the returned error is a
// *ValidationError enumerating every violation found in one pass.
func LoadTreeSet(data []byte) (*TreeSet, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing policy json: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("policy json failed schema validation: %w", err)
	}

	var raw rawTreeSet
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding policy json: %w", err)
	}

	ts := &TreeSet{Parameters: raw.Parameters}
	if ts.Parameters == nil {
		ts.Parameters = make(map[string]float64)
	}
	var err error
	if ts.Payment, err = parseTree(TreePayment, raw.Payment); err != nil {
		return nil, err
	}
	if ts.Bank, err = parseTree(TreeBank, raw.Bank); err != nil {
		return nil, err
	}
	if ts.CollateralPost, err = parseTree(TreeCollateralPost, raw.CollateralPost); err != nil {
		return nil, err
	}
	if ts.CollateralWithdraw, err = parseTree(TreeCollateralWithdraw, raw.CollateralWithdraw); err != nil {
		return nil, err
	}

	if verr := ValidateTreeSet(ts); verr != nil {
		return nil, verr
	}
	return ts, nil
}

func parseTree(kind TreeKind, data json.RawMessage) (*Tree, error) {
	if len(data) == 0 {
		return nil, nil
	}
	root, err := parseNode(data)
	if err != nil {
		return nil, fmt.Errorf("%s tree: %w", kind, err)
	}
	return &Tree{Kind: kind, Root: root}, nil
}

func parseNode(data json.RawMessage) (Node, error) {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	switch raw.Type {
	case "condition":
		pred, err := parsePredicate(raw.Predicate)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", raw.ID, err)
		}
		onTrue, err := parseNode(raw.OnTrue)
		if err != nil {
			return nil, err
		}
		onFalse, err := parseNode(raw.OnFalse)
		if err != nil {
			return nil, err
		}
		return &Condition{ID: raw.ID, Predicate: pred, OnTrue: onTrue, OnFalse: onFalse}, nil
	case "action":
		params := raw.Params
		if params == nil {
			params = make(map[string]float64)
		}
		return &Action{ID: raw.ID, Kind: raw.Action, Params: params, Target: raw.Target}, nil
	default:
		// Unreachable after schema validation.
		return nil, fmt.Errorf("node %s: unknown node type %q", raw.ID, raw.Type)
	}
}

func parsePredicate(data json.RawMessage) (Predicate, error) {
	var raw rawPredicate
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if validLogicalOps[raw.Op] {
		subs := make([]Predicate, 0, len(raw.Operands))
		for _, rawSub := range raw.Operands {
			sub, err := parsePredicate(rawSub)
			if err != nil {
				return nil, err
			}
			subs = append(subs, sub)
		}
		return &Logical{Op: raw.Op, Operands: subs}, nil
	}
	left, err := parseOperand(raw.Left)
	if err != nil {
		return nil, err
	}
	right, err := parseOperand(raw.Right)
	if err != nil {
		return nil, err
	}
	return &Comparison{Op: raw.Op, Left: left, Right: right}, nil
}

func parseOperand(data json.RawMessage) (Operand, error) {
	var raw rawOperand
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	switch {
	case raw.Field != nil:
		return &FieldRef{Name: *raw.Field}, nil
	case raw.Param != nil:
		return &ParamRef{Name: *raw.Param}, nil
	case raw.Register != nil:
		return &RegisterRef{Name: *raw.Register}, nil
	case raw.Value != nil:
		return &Literal{Value: *raw.Value}, nil
	default:
		left, err := parseOperand(raw.Left)
		if err != nil {
			return nil, err
		}
		right, err := parseOperand(raw.Right)
		if err != nil {
			return nil, err
		}
		return &Computed{Op: raw.Op, Left: left, Right: right}, nil
	}
}
