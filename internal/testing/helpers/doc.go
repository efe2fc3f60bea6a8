// Package helpers provides test utility functions for the storefront API.
//
// # Token Helpers
//
// Issue tokens signed with the shared test secret:
//
//	tokens := helpers.NewTestTokenService()
//	token := helpers.IssueToken(t, tokens, "a@b.com")
//
// # Request Helpers
//
//	resp := helpers.NewRequest(t, http.MethodPost, "/products").
//	    WithBody(body).
//	    WithToken(token).
//	    Do(router)
//
// # Assertion Helpers
//
//	helpers.AssertAPIError(t, resp, http.StatusBadRequest, model.CodeInvalidPayload)
//	helpers.AssertRecordExists(t, db, "product", id)
package helpers
