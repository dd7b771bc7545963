// Package utils holds small helpers shared by the qpv commands and clients
// that are too thin to be packages of their own.
package utils

// Set at build time through -ldflags.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent identifies qpv on outbound requests to thumbnail hosts, embedding
// providers and the qpv API.
func UserAgent() string {
	return "qpv/" + Version
}
