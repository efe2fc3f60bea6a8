// Package model defines the domain entities and API envelopes of the storefront API.
//
// # Domain Entities
//
//   - Product: catalog item with title, price and image link
//
// # Error Envelope
//
// Every failure is written as an APIError:
//
//	{"success": false, "code": "invalid_payload", "message": "..."}
//
// The code is machine readable and stable; the message is for humans. No
// stack traces or internal state are ever placed in either field.
package model
