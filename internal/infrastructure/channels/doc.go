// Package channels contains the concrete integrated-channel API clients:
// SAP SuccessFactors, Degreed, Moodle and Cornerstone OnDemand.
//
// Each adapter implements the channel.Client port. Adapters hold a default
// configuration plus per-customer overrides loaded from the channel
// configuration store, and translate completion and content-metadata payloads
// into the partner API's native shape. Partner errors surface as
// channel.ClientError so transmitters can record the status code and message
// on the audit row.
package channels
