package dsl

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	yaml "gopkg.in/yaml.v3"
)

func GetJSONSchema() string {
	return `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["version", "shortcuts"],
		"additionalProperties": false,
		"properties": {
			"version": {
				"type": "integer",
				"enum": [1]
			},
			"shortcuts": {
				"type": "array",
				"items": {
					"$ref": "#/definitions/shortcut"
				}
			},
			"variables": {
				"type": "array",
				"items": {
					"$ref": "#/definitions/variable"
				}
			}
		},
		"definitions": {
			"shortcut": {
				"type": "object",
				"required": ["name"],
				"additionalProperties": false,
				"properties": {
					"id": {"type": "string"},
					"name": {"type": "string", "minLength": 1, "maxLength": 50},
					"description": {"type": "string"},
					"icon": {"type": "string"},
					"execution_type": {"enum": ["app", "scripting"]},
					"method": {"enum": ["GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS", "TRACE"]},
					"url": {"type": "string"},
					"authentication": {"enum": ["none", "basic", "digest", "bearer"]},
					"username": {"type": "string"},
					"password": {"type": "string"},
					"auth_token": {"type": "string"},
					"request_body_type": {"enum": ["form_data", "x_www_form_urlencode", "custom_text", "file"]},
					"content_type": {"type": "string"},
					"body_content": {"type": "string"},
					"file_path": {"type": "string"},
					"headers": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["key"],
							"additionalProperties": false,
							"properties": {
								"key": {"type": "string", "minLength": 1},
								"value": {"type": "string"}
							}
						}
					},
					"parameters": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["key"],
							"additionalProperties": false,
							"properties": {
								"key": {"type": "string", "minLength": 1},
								"value": {"type": "string"},
								"is_file": {"type": "boolean"}
							}
						}
					},
					"timeout": {"type": "integer", "minimum": 0, "maximum": 3600000},
					"delay": {"type": "integer", "minimum": 0, "maximum": 86400000},
					"retry_policy": {"enum": ["none", "wait_for_internet"]},
					"feedback": {"enum": ["none", "simple_response", "simple_response_errors", "full_response", "errors_only", "dialog", "activity", "debug"]},
					"accept_all_certificates": {"type": "boolean"},
					"follow_redirects": {"type": "boolean"},
					"require_confirmation": {"type": "boolean"},
					"proxy_host": {"type": "string"},
					"proxy_port": {"type": "integer", "minimum": 0, "maximum": 65535},
					"code_on_prepare": {"type": "string"},
					"code_on_success": {"type": "string"},
					"code_on_failure": {"type": "string"}
				}
			},
			"variable": {
				"type": "object",
				"required": ["key"],
				"additionalProperties": false,
				"properties": {
					"id": {"type": "string"},
					"key": {"type": "string", "pattern": "^[A-Za-z0-9_]{1,30}$"},
					"value": {"type": "string"},
					"type": {"enum": ["constant", "text", "number", "password", "select", "toggle", "color"]},
					"title": {"type": "string"},
					"options": {"type": "array", "items": {"type": "string"}},
					"remember_value": {"type": "boolean"},
					"url_encode": {"type": "boolean"}
				}
			}
		}
	}`
}

func ValidateYAMLWithSchema(yamlPayload []byte) error {
	var data interface{}
	if err := yaml.Unmarshal(yamlPayload, &data); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(GetJSONSchema())
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}

	if !result.Valid() {
		var errMsg string
		for _, desc := range result.Errors() {
			errMsg += fmt.Sprintf("- %s\n", desc)
		}
		return fmt.Errorf("schema validation failed:\n%s", errMsg)
	}

	return nil
}
