// Package config loads scanner settings from the environment and transition
// tables from YAML documents.
//
// A table document names its states and lists phase-driven transitions:
//
//	id: scanner
//	initial: S1
//	clock:
//	  scale: 10
//	  bins: 14
//	states: [S1, S2, S3]
//	transitions:
//	  - {from: S1, phase: 0, to: S2}
//	  - {from: S2, phase: 1, to: S3}
//
// Every phase used by a transition becomes one edge trigger named by
// PhaseTrigger. Triggers are registered in ascending phase order.
package config
