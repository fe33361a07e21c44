// Package pkgrouter wraps httprouter with the application's handler shape,
// response codecs, and the standard middleware chain (panic recovery,
// correlation IDs, request logging).
package pkgrouter
