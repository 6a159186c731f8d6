package parsers

import (
	"bufio"
	"bytes"
	"strings"
)

// ParseProperties reads a Java properties file. Only the key=value and
// key:value forms written by Maven are supported.
func ParseProperties(data []byte) map[string]string {
	out := make(map[string]string)
	s := bufio.NewScanner(bytes.NewReader(data))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}
		idx := strings.IndexAny(line, "=:")
		if idx < 0 {
			continue
		}
		out[strings.TrimSpace(line[:idx])] = strings.TrimSpace(line[idx+1:])
	}
	return out
}

// ParsePomProperties returns the coordinates in META-INF/maven/.../pom.properties
func ParsePomProperties(content []byte) Manifest {
	p := ParseProperties(content)
	return Manifest{Namespace: p["groupId"], Name: p["artifactId"], Version: p["version"]}
}
