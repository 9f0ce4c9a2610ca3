package scanner

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
)

var (
	roleSeparators = regexp.MustCompile(`\s+(?:/|@|;)\s+`)
	ecNumber       = regexp.MustCompile(`\s*\((?:EC|TC)\s+[^)]*\)`)
)

// SplitRoles breaks a functional assignment into role names. Comments
// introduced by '#' are dropped.
func SplitRoles(function string) []string {
	if i := strings.Index(function, "#"); i >= 0 {
		function = function[:i]
	}
	function = strings.TrimSpace(function)
	if function == "" {
		return nil
	}
	var out []string
	for _, part := range roleSeparators.Split(function, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// normalizeRole reduces a role name to a matching key: EC and TC numbers
// removed, lower case, no whitespace.
func normalizeRole(name string) string {
	name = ecNumber.ReplaceAllString(name, "")
	var b strings.Builder
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// RoleMap maps role ids to names and normalized names back to ids.
type RoleMap struct {
	names map[string]string
	ids   map[string]string
}

// NewRoleMap returns an empty role map.
func NewRoleMap() *RoleMap {
	return &RoleMap{names: make(map[string]string), ids: make(map[string]string)}
}

// Add registers a role. The first id registered for a name wins.
func (m *RoleMap) Add(id, name string) {
	m.names[id] = name
	key := normalizeRole(name)
	if _, ok := m.ids[key]; !ok {
		m.ids[key] = id
	}
}

// ID finds the role id for a name.
func (m *RoleMap) ID(name string) (string, bool) {
	id, ok := m.ids[normalizeRole(name)]
	return id, ok
}

// Name returns the name of a role id.
func (m *RoleMap) Name(id string) (string, bool) {
	name, ok := m.names[id]
	return name, ok
}

// Len returns the number of roles.
func (m *RoleMap) Len() int {
	return len(m.names)
}

// LoadRoleMap reads a role definition file: tab-delimited lines with the
// role id first and the role name last, no header. Blank lines and lines
// starting with '#' are ignored.
func LoadRoleMap(path string) (*RoleMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scanner: open role file: %w", err)
	}
	defer f.Close()

	m := NewRoleMap()
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		cols := strings.Split(text, "\t")
		if len(cols) < 2 {
			return nil, fmt.Errorf("scanner: %s line %d: want id and name columns", path, line)
		}
		m.Add(cols[0], cols[len(cols)-1])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanner: read role file: %w", err)
	}
	return m, nil
}
