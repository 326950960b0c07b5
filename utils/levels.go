package utils

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
)

func SetupLogLevels() {
	if val, set := os.LookupEnv("GOLOG_LOG_LEVEL"); !set {
		_ = logging.SetLogLevel("*", "INFO")
		_ = logging.SetLogLevel("badger", "WARN")
		_ = logging.SetLogLevel("metrics", "WARN")
	} else {
		_ = logging.SetLogLevel("*", val)
	}
}
