package core

import "strings"

// Environment names the deployment the process runs in. It selects the log
// format and level.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// Deployed reports whether logs go to a collector rather than a terminal.
func (e Environment) Deployed() bool {
	return e == Production || e == Staging
}

// ParseEnvironment accepts APP_ENV values case-insensitively, including the
// short forms dev, stage, test and prod. Anything else is Development.
func ParseEnvironment(v string) Environment {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	case "testing", "test":
		return Testing
	default:
		return Development
	}
}
