// Package enterprise contains the Enterprise bounded context.
// This context manages enterprise customers (organizational tenants of the
// learning platform), the learners linked to them, their curated course
// catalogs, and their course enrollments.
package enterprise
