package constants

// BuildVersion is the local build version
const BuildVersion = "0.1.0"

// CurrentCommit is set with -ldflags "-X .../constants.CurrentCommit=..."
var CurrentCommit string

func UserVersion() string {
	return BuildVersion + CurrentCommit
}
