// Package maintenance manages the shared maintenance-mode state consumed by
// the gating middleware and controlled by operators.
//
// The enabled flag and the detail state live under two keys in the shared
// flag store, so all gateway workers observe the same mode. The flag and the
// details are independently settable; disabling clears both keys.
package maintenance
