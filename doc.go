// Package auth issues and verifies signed session tokens for registered
// identities.
//
// Flow:
//   - CredentialVerifier checks a username and secret against an
//     IdentityStore. Unknown usernames and wrong secrets are reported with the
//     same ErrInvalidCredentials so callers cannot discover accounts.
//   - TokenService issues HS256 tokens carrying the identity id and role,
//     valid for TokenTTL, and validates them: signature first, then expiry.
//   - KeyRing keeps tokens signed with retired keys valid until they
//     expire after a signing key rotation.
//   - RoleGate authorizes a token, passed explicitly, against a required
//     role and reports Authorized, Unauthenticated or Forbidden.
//   - Auther combines the above for the login and registration flows.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther and RoleGate
//     to describe login, registration and access denied events. Sinks run
//     best-effort (errors are logged) so you can forward to metrics or a queue
//     without blocking authentication.
//
// Errors are go-errors values. Match them with IsError, which compares text
// codes along the wrapped chain.
//
// Request and response auditing lives in the audit subpackage.
package auth
