// Package service holds the types shared by the application services.
//
// Each use case area lives in its own subpackage:
//
//   - cards: per-module card CRUD, seeding and bulk import
//   - study: today's must-study list and review / application events
//   - auth: registration, login and JWT issuance
//   - progress: learner progress and character mastery
//   - speech: sentence splitting, cached speech synthesis and OCR
//
// Services depend on the interfaces in internal/store and on domain types,
// never on a concrete backend. Failures are wrapped in ServiceError so the
// API layer can map the underlying sentinel to a status code.
package service
