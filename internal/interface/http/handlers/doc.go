// Package handlers contains reusable HTTP building blocks for the Orbit
// API server: health checking and generic middleware. The route handlers
// themselves live in the parent http package; this package holds the
// pieces that carry no Orbit domain knowledge.
package handlers
