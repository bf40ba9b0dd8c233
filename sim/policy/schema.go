package policy

// treeSetSchema is the structural contract for policy tree-set JSON
// documents. The schema pass rejects malformed shapes (wrong types, missing
// required keys, unknown operators) before the semantic pass enumerates
// domain violations.
const treeSetSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "parameters": {
      "type": "object",
      "additionalProperties": {"type": "number"}
    },
    "payment_tree": {"$ref": "#/$defs/node"},
    "bank_tree": {"$ref": "#/$defs/node"},
    "collateral_post_tree": {"$ref": "#/$defs/node"},
    "collateral_withdraw_tree": {"$ref": "#/$defs/node"}
  },
  "$defs": {
    "node": {
      "oneOf": [
        {
          "type": "object",
          "additionalProperties": false,
          "required": ["id", "type", "predicate", "on_true", "on_false"],
          "properties": {
            "id": {"type": "string", "minLength": 1},
            "type": {"const": "condition"},
            "predicate": {"$ref": "#/$defs/predicate"},
            "on_true": {"$ref": "#/$defs/node"},
            "on_false": {"$ref": "#/$defs/node"}
          }
        },
        {
          "type": "object",
          "additionalProperties": false,
          "required": ["id", "type", "action"],
          "properties": {
            "id": {"type": "string", "minLength": 1},
            "type": {"const": "action"},
            "action": {"type": "string", "minLength": 1},
            "params": {
              "type": "object",
              "additionalProperties": {"type": "number"}
            },
            "target": {"type": "string"}
          }
        }
      ]
    },
    "predicate": {
      "oneOf": [
        {
          "type": "object",
          "additionalProperties": false,
          "required": ["op", "left", "right"],
          "properties": {
            "op": {"enum": ["eq", "ne", "lt", "le", "gt", "ge"]},
            "left": {"$ref": "#/$defs/operand"},
            "right": {"$ref": "#/$defs/operand"}
          }
        },
        {
          "type": "object",
          "additionalProperties": false,
          "required": ["op", "operands"],
          "properties": {
            "op": {"enum": ["and", "or", "not"]},
            "operands": {
              "type": "array",
              "minItems": 1,
              "items": {"$ref": "#/$defs/predicate"}
            }
          }
        }
      ]
    },
    "operand": {
      "oneOf": [
        {
          "type": "object",
          "additionalProperties": false,
          "required": ["field"],
          "properties": {"field": {"type": "string", "minLength": 1}}
        },
        {
          "type": "object",
          "additionalProperties": false,
          "required": ["param"],
          "properties": {"param": {"type": "string", "minLength": 1}}
        },
        {
          "type": "object",
          "additionalProperties": false,
          "required": ["register"],
          "properties": {"register": {"type": "string", "minLength": 1}}
        },
        {
          "type": "object",
          "additionalProperties": false,
          "required": ["value"],
          "properties": {"value": {"type": "number"}}
        },
        {
          "type": "object",
          "additionalProperties": false,
          "required": ["op", "left", "right"],
          "properties": {
            "op": {"enum": ["add", "sub", "mul", "div"]},
            "left": {"$ref": "#/$defs/operand"},
            "right": {"$ref": "#/$defs/operand"}
          }
        }
      ]
    }
  }
}`
