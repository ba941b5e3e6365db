package utils

import (
	"os"
	"os/user"
	"path/filepath"
)

const dataDirName = ".credex"

// BaseDir returns the home directory of the current user.
func BaseDir() string {
	if v := os.Getenv("HOME"); v != "" {
		return v
	}
	currentUser, err := user.Current()
	if err != nil {
		panic(err)
	}
	return currentUser.HomeDir
}

// DataDir returns the default directory of the agent's record storage.
func DataDir() string {
	return filepath.Join(BaseDir(), dataDirName)
}
