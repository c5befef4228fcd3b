package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

const ignoreFileName = "ignore"

// LoadIgnore reads the install-root scan ignore list at {dir}/ignore, one
// directory name per line, feeding oracle.Generic.Ignore. Blank lines
// and lines starting with "#" are skipped. If the file does not
// exist, an empty list is returned without an error.
func LoadIgnore(dir string) ([]string, error) {
	path := filepath.Join(dir, ignoreFileName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
