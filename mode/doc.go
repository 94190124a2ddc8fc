// Package mode defines the closed set of operating modes and the constant
// behavior profile each one carries.
//
// A Configuration is a pure function of the Mode; callers resolve it with
// ConfigurationFor and derive request shaping with Configuration.Augment.
package mode
