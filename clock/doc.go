// Package clock abstracts time for the policy engine.
//
// Every timing decision a policy makes (retry sleeps, circuit cooldowns,
// timeout deadlines, queue waits, hedge delays) goes through a Clock, so
// tests can substitute a deterministic clock and advance virtual time
// without real delays. The clocktest subpackage provides such a clock.
package clock
