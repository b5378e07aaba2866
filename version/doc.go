// Package version reports build information for slotpipe binaries.
//
// Version and commit are set at link time, with VCS stamps from the Go
// toolchain as the fallback:
//
//	go build -ldflags "-X github.com/kbukum/slotpipe/version.Version=1.2.0" ./cmd/slotcat
package version
