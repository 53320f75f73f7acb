// Package transport turns a P4PORT string into a connected byte stream.
//
// Supported forms:
//
//	1666                 tcp to localhost
//	host                 tcp on the default port
//	host:port            tcp
//	tcp:host:port        tcp
//	ssl:host:port        TLS over tcp
//	ssh:user@host[:port] a remote "p4d -i" over SSH stdin/stdout
package transport
