// Package config loads the modeflowd YAML file.
//
// Values are decoded onto Defaults, so a file only names what it changes.
// Strings may reference the environment or a secret provider:
//
//	upstream:
//	  endpoint: https://${BACKEND_HOST}/v1/complete
//	  token:
//	    signing_key: secretref:file:/run/secrets/upstream-key
package config
