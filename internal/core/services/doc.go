// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters): measure ingestion runs, roll-call
// vote ingestion, the official catalogue and alignment scoring.
//
// Services are pure Go with no CGO.
package services
