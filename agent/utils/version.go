package utils

// Version is set by the build: -ldflags "-X ...utils.Version=x.y.z"
var Version = "0.1.0-dev"
