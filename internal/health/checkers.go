// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"time"
)

// CredentialChecker reports whether the upstream API key is configured.
// It never sees the key itself.
type CredentialChecker struct {
	configured func() bool
}

// NewCredentialChecker creates a checker backed by configured.
func NewCredentialChecker(configured func() bool) *CredentialChecker {
	return &CredentialChecker{configured: configured}
}

func (c *CredentialChecker) Name() string {
	return "upstream_credential"
}

func (c *CredentialChecker) Check(_ context.Context) CheckResult {
	if c.configured == nil || !c.configured() {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "FRED API key not configured",
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "FRED API key configured",
	}
}

// ReloadChecker reports the outcome of the most recent configuration reload.
// A failed reload degrades the service: the previous configuration is still served.
type ReloadChecker struct {
	lastReload func() (time.Time, string)
}

// NewReloadChecker creates a checker for the last config reload.
func NewReloadChecker(lastReload func() (time.Time, string)) *ReloadChecker {
	return &ReloadChecker{lastReload: lastReload}
}

func (c *ReloadChecker) Name() string {
	return "config_reload"
}

func (c *ReloadChecker) Check(_ context.Context) CheckResult {
	at, lastError := c.lastReload()

	if at.IsZero() {
		return CheckResult{
			Status:  StatusHealthy,
			Message: "initial configuration",
		}
	}

	if lastError != "" {
		return CheckResult{
			Status:  StatusDegraded,
			Error:   lastError,
			Message: "last reload failed; serving previous configuration",
		}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Message: "last reload applied at " + at.UTC().Format(time.RFC3339),
	}
}
