// Package shazam is a client for the Shazam song detection API.
//
// Only the detect call is implemented: a captured audio segment is posted
// base64-encoded and the service answers with either a matched track or an
// empty match list. The service does not tolerate concurrent requests well;
// serializing calls is the caller's job (see modules/monitor).
package shazam
