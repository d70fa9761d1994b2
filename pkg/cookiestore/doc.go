// Package cookiestore renders cookie records into Set-Cookie header values.
//
// Encoding applies the browser-compatibility policy alongside plain field
// concatenation:
//
//   - Values are URI-component encoded.
//   - Expiry is written as an RFC 7231 HTTP-date in UTC.
//   - Names starting with "__Secure" always get Secure.
//   - Secure cookies without SameSite get SameSite=Lax.
//
// Parsing and storing cookies are out of scope.
package cookiestore
