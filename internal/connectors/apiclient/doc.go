// Package apiclient is the HTTP client shared by the legislative source
// connectors. It applies an explicit request timeout, token-bucket pacing
// and maps HTTP failures onto typed errors that wrap the domain sentinels,
// so callers can branch with errors.Is(err, domain.ErrNotFound) or
// domain.ErrTransient without knowing about HTTP.
package apiclient
