// Package secret resolves configuration values that name secrets instead
// of containing them.
//
// A value first goes through strict environment expansion: ${VAR} must be
// set, $$ is a literal dollar. Any secretref:<provider>:<ref> left in the
// result is then replaced by the named provider. The env provider reads a
// variable and the file provider reads a mounted file:
//
//	signing_key: secretref:file:/run/secrets/upstream-key
//	endpoint: https://${BACKEND_HOST}/v1/complete
package secret
