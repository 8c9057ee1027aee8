// Package dailydistribution implements the Daily Distribution service for the
// moneywave monolith.
//
// The module owns the daily snapshot table and exposes the HTTP trigger and
// read handlers plus worker entrypoints for the scheduled allocation run and
// outbox relay. One snapshot row exists per calendar day in the configured
// timezone; reruns within the same day and algorithm version are no-ops.
package dailydistribution
