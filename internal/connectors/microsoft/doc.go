// Package microsoft provides OAuth2 and request support for Microsoft's
// calendar and contacts APIs.
//
// This package provides:
//   - Configuration of client credentials, scopes and login parameters
//   - Login and logout URL construction for the Microsoft identity platform
//   - Authorization code and refresh token exchange
//   - A generic authenticated request gateway returning tagged results
//   - Optional client-side pacing for API requests
//
// Two API surfaces are supported through profiles: Microsoft Graph
// (https://graph.microsoft.com/v1.0) and the legacy Outlook REST API
// (https://outlook.office.com/api/v2.0). They differ in scope names and in
// the casing of JSON field names.
//
// # OAuth2 Flow
//
// Endpoints default to the "common" tenant so both personal Microsoft
// accounts and Azure AD accounts can sign in:
//   - Auth URL: https://login.microsoftonline.com/common/oauth2/v2.0/authorize
//   - Token URL: https://login.microsoftonline.com/common/oauth2/v2.0/token
//
// The "offline_access" scope is required for refresh tokens. Arbitrary
// parameters travel through the flow in the state value as unpadded
// base64url-encoded JSON.
//
// # Results
//
// HTTP failures (status 400 and above) and transport failures are returned
// as data inside a Result, never as Go errors. Only caller mistakes, such as
// an unsupported method, surface through the error return.
package microsoft
