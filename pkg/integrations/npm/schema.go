package npm

import "github.com/santhosh-tekuri/jsonschema/v5"

// Registry documents are bound without a schema; only the latest version
// entry is validated, lazily, with versionSchema.
var versionSchema = jsonschema.MustCompileString("version.json", `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"},
		"dependencies": {"$ref": "#/$defs/stringMap"},
		"scripts": {"$ref": "#/$defs/stringMap"}
	},
	"$defs": {
		"stringMap": {"type": "object", "additionalProperties": {"type": "string"}}
	}
}`)

var indexSchema = jsonschema.MustCompileString("index.json", `{
	"type": "object",
	"required": ["files"],
	"properties": {
		"files": {
			"type": "object",
			"required": ["/package.json"],
			"properties": {
				"/package.json": {
					"type": "object",
					"required": ["hex"],
					"properties": {
						"hex": {"type": "string", "pattern": "^[0-9a-fA-F]+$"}
					}
				}
			}
		}
	}
}`)

var fileSchema = jsonschema.MustCompileString("package.json", `{
	"type": "object",
	"required": ["name", "version"],
	"properties": {
		"name": {"type": "string"},
		"version": {"type": "string"},
		"dependencies": {"$ref": "#/$defs/stringMap"},
		"scripts": {"$ref": "#/$defs/stringMap"}
	},
	"$defs": {
		"stringMap": {"type": "object", "additionalProperties": {"type": "string"}}
	}
}`)
