// Package http exposes the roster services over a chi router.
//
// Public endpoints:
//   - GET /api/today: effective registration date, menus, plate cost and which
//     meals are still open.
//   - POST /api/registrations: multi-person registration. Body:
//     {"people":[{"name","externalId","category","rank","notes","lunch","dinner"}]}.
//   - POST /api/sessions: operator login with the daily code. Body: {"code"}.
//     POST /api/sessions/supervisor: supervisor login. Body: {"password"}. Both
//     return {"token","expiresAt","role"}, with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - GET /healthz and GET /metrics.
//
// Endpoints behind a session:
//   - DELETE /api/sessions/current: logout.
//   - GET /api/days/{date} and POST /api/days/{date}/entries, where {date} is
//     YYYY-MM-DD or "today".
//   - PATCH and DELETE /api/days/{date}/{meal}/entries/{id}.
//   - GET /api/days/{date}/export and GET /api/days/{date}/statistics/export
//     return xlsx workbooks.
//   - GET /api/archive/months, /api/archive/months/{month},
//     /api/archive/months/{month}/days and /api/archive/months/{month}/export.
//   - GET and PUT /api/configuration.
//
// Endpoints behind a supervisor session:
//   - GET /api/access-code and POST /api/access-code/regenerate.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
