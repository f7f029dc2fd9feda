// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It adapts the task and share services and the
// recurring engine to a JSON API behind bearer-token authentication.
//
// Service errors are mapped to status codes in one place, MapErrorToStatusCode,
// and clients only ever see the sanitized message from GetSafeErrorMessage.
package api
