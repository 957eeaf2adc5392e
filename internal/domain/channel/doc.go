// Package channel contains the Integrated Channel bounded context.
// This context manages synchronization of learner completion data and course
// content metadata to third-party corporate learning systems.
//
// Key concepts:
//   - Client: Port interface for connecting to integrated channels (SAP SuccessFactors, Degreed, Moodle, Cornerstone)
//   - LearnerCompletionRecord: Value object holding a normalized per-enrollment completion record
//   - ContentMetadataItem: Value object holding a channel-ready course metadata payload
//   - LearnerTransmissionAudit / ContentTransmissionAudit: Entities recording what was last sent,
//     used as idempotence markers to avoid re-sending unchanged data
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package channel
