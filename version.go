package weave

// Version and GitCommit are set by build flags:
//
//	go build -ldflags "-X github.com/iov-one/trustd.GitCommit=$(git rev-parse --short HEAD)"
var (
	version   = "v0.1.0"
	GitCommit = ""
)

// Version is the string to be displayed
func Version() string {
	if GitCommit != "" {
		return version + " " + GitCommit
	}
	return version
}
