// Package internal contains the request pipeline core: the Context
// passed through handlers and middleware, the chi router adapter, the
// wrapped response writer, and the application runtime.
//
// Everything here is re-exported through the root apigate package;
// application code never imports internal directly.
package internal
