//go:generate gomarkdoc -e -f github -o README.md . --repository.url https://github.com/agentstation/permitmap --repository.default-branch master --repository.path /

// Package permitmap queries municipal open-data portals for building and
// development permits, normalizes every source into one canonical record
// shape, and returns a merged answer with a confidence score and provenance.
package permitmap
