package collector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Identity is a Riot ID, "gameName#tagLine".
type Identity struct {
	GameName string
	TagLine  string
}

func (i Identity) String() string {
	return i.GameName + "#" + i.TagLine
}

// ParseIdentity splits a Riot ID on its last '#'.
func ParseIdentity(s string) (Identity, bool) {
	s = strings.TrimSpace(s)
	idx := strings.LastIndex(s, "#")
	if idx <= 0 || idx == len(s)-1 {
		return Identity{}, false
	}
	return Identity{
		GameName: strings.TrimSpace(s[:idx]),
		TagLine:  strings.TrimSpace(s[idx+1:]),
	}, true
}

// ReadIdentities reads one Riot ID per line. Blank and unparseable lines are skipped.
func ReadIdentities(r io.Reader) ([]Identity, error) {
	var ids []Identity
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if id, ok := ParseIdentity(scanner.Text()); ok {
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read identities: %w", err)
	}
	return ids, nil
}

// ReadIdentitiesFile reads identities from a file
func ReadIdentitiesFile(path string) ([]Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadIdentities(f)
}
