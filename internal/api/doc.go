// Package api provides the HTTP client for the notes/tasks REST API.
//
// # Overview
//
// Every call goes through Client.Do, which builds a JSON request against the
// configured base URL, attaches a bearer token when one is supplied, and
// either decodes the response or returns an *Error carrying the server's
// "message" field. There are no retries and no client-side timeout: a
// request is attempted exactly once and is bounded only by its context.
//
// # Endpoints
//
//   - POST /auth/login
//   - GET/POST /categories, PUT/DELETE /categories/{id}
//   - GET/POST /notes, PUT/DELETE /notes/{id}
//   - GET/POST /tasks, PUT/DELETE /tasks/{id}
//
// Responses may be wrapped in a {"data": ...} envelope; Do unwraps it.
//
// # Wire Types
//
// Payload types mirror what the server sends and keep optional fields
// optional (TaskPayload uses pointers). Defaulting happens once, in the
// resource package, when payloads are turned into domain records.
//
// # Headers
//
//   - Content-Type and Accept: application/json
//   - User-Agent: keep/0.1
//   - X-Request-ID: a fresh UUID per request, also logged at debug level
//   - Authorization: Bearer <token>, only when a token is given
package api
