package report

// Schema is the JSON Schema (Draft 2020-12) for the refcheck JSON
// output. It documents the structure returned by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/zacharyburnett/crds/refcheck-report.schema.json",
  "title": "refcheck Report",
  "description": "Output schema for refcheck check --format=json",
  "type": "object",
  "required": ["version", "run_id", "context", "mode", "outcomes", "summary"],
  "properties": {
    "version": {
      "type": "string",
      "description": "refcheck version"
    },
    "run_id": {
      "type": "string",
      "description": "UUID naming the run's scratch files"
    },
    "context": {
      "type": "string",
      "description": "Base name of the .pmap checked against"
    },
    "mode": {
      "type": "string",
      "enum": ["insert", "replace"]
    },
    "outcomes": {
      "type": "array",
      "items": { "$ref": "#/$defs/Outcome" }
    },
    "summary": { "$ref": "#/$defs/Summary" }
  },
  "$defs": {
    "Outcome": {
      "type": "object",
      "required": ["reference", "status"],
      "properties": {
        "reference": {
          "type": "string",
          "description": "Reference as given on the command line"
        },
        "status": {
          "type": "string",
          "enum": ["passed", "mismatch", "skipped"]
        },
        "reason": {
          "type": "string",
          "description": "Why a skipped reference was skipped"
        },
        "path": { "type": "string" },
        "instrument": { "type": "string" },
        "filekind": { "type": "string" },
        "mapping": {
          "type": "string",
          "description": "Governing reference mapping"
        },
        "actions": {
          "type": "array",
          "items": { "$ref": "#/$defs/Action" }
        },
        "verdict": { "$ref": "#/$defs/Verdict" },
        "diagnostics": { "$ref": "#/$defs/Diagnostics" }
      }
    },
    "Action": {
      "type": "object",
      "required": ["kind", "match", "new_reference", "description"],
      "properties": {
        "kind": {
          "type": "string",
          "enum": ["insert", "replace"]
        },
        "match": { "$ref": "#/$defs/MatchTuple" },
        "old_reference": { "type": "string" },
        "new_reference": { "type": "string" },
        "description": { "type": "string" }
      }
    },
    "Verdict": {
      "type": "object",
      "required": ["as_expected", "discrepancies", "expected_computed"],
      "properties": {
        "as_expected": { "type": "boolean" },
        "discrepancies": {
          "type": ["array", "null"],
          "items": { "$ref": "#/$defs/Discrepancy" }
        },
        "expected": {
          "type": ["array", "null"],
          "items": { "$ref": "#/$defs/MatchTuple" }
        },
        "expected_computed": {
          "type": "boolean",
          "description": "Whether the expectation oracle was consulted"
        }
      }
    },
    "Discrepancy": {
      "type": "object",
      "required": ["category", "detail"],
      "properties": {
        "category": {
          "type": "string",
          "enum": ["unexpected_kind", "unanticipated_match", "missing_expected_match", "no_actions"]
        },
        "match": { "$ref": "#/$defs/MatchTuple" },
        "kind": { "type": "string" },
        "instrument": { "type": "string" },
        "filekind": { "type": "string" },
        "detail": { "type": "string" }
      }
    },
    "MatchTuple": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["name", "pattern"],
        "properties": {
          "name": { "type": "string" },
          "pattern": { "type": "string" }
        }
      }
    },
    "Diagnostics": {
      "type": "object",
      "required": ["reproduced", "diff"],
      "properties": {
        "reproduced": {
          "type": "boolean",
          "description": "Re-run produced identical actions and scratch output"
        },
        "diff": { "type": "string" },
        "metadata": { "type": "string" },
        "rerun_error": { "type": "string" },
        "diff_error": { "type": "string" },
        "metadata_error": { "type": "string" }
      }
    },
    "Summary": {
      "type": "object",
      "required": ["total", "passed", "mismatched", "skipped", "errors", "warnings", "infos"],
      "properties": {
        "total": { "type": "integer", "minimum": 0 },
        "passed": { "type": "integer", "minimum": 0 },
        "mismatched": { "type": "integer", "minimum": 0 },
        "skipped": { "type": "integer", "minimum": 0 },
        "errors": { "type": "integer", "minimum": 0 },
        "warnings": { "type": "integer", "minimum": 0 },
        "infos": { "type": "integer", "minimum": 0 }
      }
    }
  }
}`
