// Package objstore adapts S3-compatible buckets to the small surface the
// scanners, metadata probe, and remediation executor need.
//
// Bucket is implemented by a minio-go client for real deployments and by an
// in-memory Memory bucket used in tests and dry runs. Both report a missing
// object as fault.ErrNotFound so callers can tell absence apart from network
// or credential failures. Helpers here also encode the key layout rules:
// logical folders may keep files directly under the folder or under an
// optional Songs subfolder, and sidecar metadata lives under separate
// artifacts/ and output/ namespaces keyed by ledger identifier.
package objstore
