// Package service runs long-lived subsystems (audio device, simulation clock, control loop)
// in dependency order
package service

// Service is the lifecycle contract for instrument subsystems
//
// Lifecycle:
//  1. Construction
//  2. Init(args...) - configuration from flags, env or config file
//  3. Start() - launch background goroutines
//  4. [runtime operation]
//  5. Stop() - halt goroutines, release devices
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init and Start before this one
	Dependencies() []string

	// Init configures the service; args are service-specific
	Init(args ...any) error

	// Start begins operation; called after every service has initialized
	Start() error

	// Stop halts operation; must be idempotent
	Stop() error
}
