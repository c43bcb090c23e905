// File: cmd/version.go
package cmd

// Version is the application version.
// Set at build time: go build -ldflags "-X github.com/Hamza-bouzid/pagine-bianche/cmd.Version=1.0.0"
var Version = "dev"
