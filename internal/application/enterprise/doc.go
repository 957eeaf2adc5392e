// Package enterprise holds the application services for enterprise customer
// management: customers, learner links, catalogs and course enrollments.
// Services orchestrate the domain repositories and the host platform API
// clients; HTTP handlers and the sync commands sit on top of them.
package enterprise
