package version

// These can be set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = ""
)

func String() string {
	s := "agtool " + Version
	if Commit != "" {
		s += " commit=" + Commit
	}
	return s
}
