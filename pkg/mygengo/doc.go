// Package mygengo is a client for the Gengo human-translation HTTP API.
//
// Every request is authenticated with a public/private key pair. The public
// key is sent verbatim; the private key only keys an HMAC-SHA1 over the
// request timestamp and never leaves the process.
//
// # Dispatch
//
// Operations are described by a static table of [Descriptor] values keyed by
// the API's method names ("getAccountStats", "postTranslationJob", ...).
// [Client.Call] looks the name up, substitutes path arguments into the URL
// template, signs the request, sends it and decodes the JSON envelope:
//
//	client := mygengo.New(mygengo.Credentials{PublicKey: pub, PrivateKey: priv},
//	    mygengo.WithSandbox(true))
//	resp, err := client.Call(ctx, "getTranslationJob", nil, mygengo.PathArgs{"id": "42"})
//
// Typed wrappers such as [Client.AccountStats] or [Client.PostJob] cover the
// whole catalog and delegate to Call.
//
// # Errors
//
// Failures are reported as typed errors that match a sentinel through
// errors.Is: [ErrConfig], [ErrUnknownMethod], [ErrMissingParameter],
// [ErrAuth], [ErrAPI] and [ErrTransport]. Nothing is retried.
//
// # Thread Safety
//
// A [Client] holds only immutable configuration and is safe for concurrent use.
package mygengo
