// Package authsdk is a Go client for the gatekeep authentication service.
//
// The SDKClient covers the unauthenticated surface (login, refresh, logout);
// a Session wraps a token pair and transparently refreshes the access token
// before it expires, rotating the stored refresh token as it goes.
package authsdk
