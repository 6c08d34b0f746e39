package utils

import (
	"os"
	"path/filepath"
	"strings"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// OutputPath derives where the artifact for input goes: "dir/Prog.vm" gives
// "dir/Prog<ext>", a directory "dir/Prog" gives "dir/Prog/Prog<ext>".
func OutputPath(input, ext string) (dir string, name string, err error) {
	fullPath, parentDir, err := GetPathInfo(input)
	if err != nil {
		return "", "", err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return "", "", err
	}

	base := filepath.Base(fullPath)
	if info.IsDir() {
		return fullPath, base + ext, nil
	}
	return parentDir, strings.TrimSuffix(base, filepath.Ext(base)) + ext, nil
}

// SplitOutput splits an explicit output path into its directory and file name.
func SplitOutput(path string) (dir string, name string, err error) {
	fullPath, parentDir, err := GetPathInfo(path)
	if err != nil {
		return "", "", err
	}
	return parentDir, filepath.Base(fullPath), nil
}
