package report

// Schema is the JSON Schema (Draft 2020-12) for the nilguard listing
// JSON output. It documents the structure returned by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/nilguard/listing.schema.json",
  "title": "nilguard Candidate Listing",
  "description": "Output schema for nilguard list --format=json",
  "type": "object",
  "required": ["version", "package", "entries"],
  "properties": {
    "version": {
      "type": "string",
      "description": "nilguard version"
    },
    "package": {
      "type": "string",
      "description": "Import path of the listed package"
    },
    "entries": {
      "type": "array",
      "items": { "$ref": "#/$defs/Entry" }
    }
  },
  "$defs": {
    "Entry": {
      "type": "object",
      "required": ["package", "member", "kind", "param", "index", "param_type", "location"],
      "additionalProperties": false,
      "properties": {
        "package": {
          "type": "string",
          "description": "Full import path"
        },
        "type": {
          "type": "string",
          "description": "Declaring type; absent for package functions"
        },
        "member": {
          "type": "string",
          "description": "Function, method or constructor name"
        },
        "kind": {
          "type": "string",
          "enum": ["function", "method", "constructor"]
        },
        "param": {
          "type": "string",
          "description": "Parameter passed as nil"
        },
        "index": {
          "type": "integer",
          "minimum": 0
        },
        "param_type": {
          "type": "string",
          "description": "Parameter type qualified by package name"
        },
        "location": {
          "type": "string",
          "description": "Source position (file:line:col)"
        }
      }
    }
  }
}`
