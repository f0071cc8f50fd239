package ratelimit

import "time"

// Limiter classes. A class is a named quota bucket governing a family of
// endpoints; unknown classes fall back to a flat default quota.
const (
	ClassAuth   = "auth"
	ClassAPI    = "api"
	ClassUpload = "upload"
	ClassSearch = "search"
)

// defaultMax is the quota applied to any class not in the table.
const defaultMax = 60

// maxByClassRole holds max attempts per window, by class and role.
var maxByClassRole = map[string]map[string]int{
	ClassAuth: {
		"super_admin": 10,
		"admin":       10,
		"editor":      8,
		"author":      8,
		"user":        5,
		"guest":       5,
	},
	ClassAPI: {
		"super_admin": 1000,
		"admin":       500,
		"editor":      300,
		"author":      200,
		"user":        100,
		"guest":       60,
	},
	ClassUpload: {
		"super_admin": 50,
		"admin":       50,
		"editor":      30,
		"author":      30,
		"user":        10,
		"guest":       5,
	},
	ClassSearch: {
		"super_admin": 200,
		"admin":       200,
		"editor":      150,
		"author":      150,
		"user":        100,
		"guest":       50,
	},
}

// windowByClass holds the counting window per class.
var windowByClass = map[string]time.Duration{
	ClassAuth:   15 * time.Minute,
	ClassUpload: time.Hour,
	ClassSearch: time.Minute,
}

// defaultWindow applies to classes without a configured window.
const defaultWindow = time.Minute

// MaxAttempts returns the quota for the class and role. Unknown roles get
// the guest quota of the class; unknown classes get the flat default.
func MaxAttempts(class, role string) int {
	quotas, ok := maxByClassRole[class]
	if !ok {
		return defaultMax
	}
	if m, ok := quotas[role]; ok {
		return m
	}
	return quotas["guest"]
}

// Window returns the counting window for the class.
func Window(class string) time.Duration {
	if w, ok := windowByClass[class]; ok {
		return w
	}
	return defaultWindow
}
