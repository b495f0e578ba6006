// Command shelfsync reconciles a local catalog tree, an object store
// bucket, and the processing ledger, and applies reviewed remediation
// decisions.
package main
