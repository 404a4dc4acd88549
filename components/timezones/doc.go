// Package timezones serves IANA timezone names as an async option source.
//
// The handler speaks the Items contract async fields expect: a JSON object
// whose Items array holds an "id" plus a label keyed by the field id. A q
// parameter narrows the list; prefix matches rank first.
package timezones
