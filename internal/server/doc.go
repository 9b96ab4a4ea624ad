// Package server provides the teamtrack HTTP API.
//
// Members sign in, log weigh-ins, review their focus drill history and run
// the focus drill; coaches additionally see the team roster and members'
// logs. Each signed-in member owns one drill session on the server; HTTP
// handlers only send it intents, and its results are written to the focus
// log by a background recorder.
//
// # Endpoints
//
//   - POST /auth - Sign in by email or as a guest, returns a session token
//   - POST /logout - Revoke the token; ends the drill with the last token
//   - GET, PATCH /profile - Read or update name and weight class
//   - POST /coach - Promote the caller to coach with the coach passcode
//   - GET, POST /weights - List or log weigh-ins
//   - GET /focus - List focus drill scores
//   - GET /roster - Team roster (coaches)
//   - GET /roster/{uid}/weights, /roster/{uid}/focus - A member's logs (coaches)
//   - GET /drill - Current drill view
//   - POST /drill/start, /drill/tap, /drill/restart - Drill intents
//   - GET /drill/live - WebSocket stream of drill views
//   - GET /healthz - Liveness
//   - GET / - Browser client (embedded web/dist, or Config.Assets)
//
// # Authentication
//
// The team password, when configured, and the coach passcode are stored as
// argon2id hashes. /auth and /coach are rate limited per client IP with
// exponential blocking after repeated failures. Tokens are sent as
// "Authorization: Bearer <token>", or as ?token= on /drill/live.
package server
