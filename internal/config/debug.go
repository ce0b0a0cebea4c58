package config

import "os"

func IsDebug() bool {
	return os.Getenv("CONCIERGE_DEBUG") == "1"
}
