package config

import (
	"encoding/json"
	"fmt"
	"os"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// overrideFile is the shape of a profile override file.
type overrideFile struct {
	Profiles map[string]ProfileSettings `json:"profiles"`
}

// LoadOverrides reads a hand-written profile override file and merges it into
// s.Profiles. Entries in the file replace entries of the same name. The file may be
// strict JSON, slightly broken JSON (trailing commas, single quotes, comments) or
// Hjson.
func (s *Settings) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read overrides %s: %w", path, err)
	}
	var f overrideFile
	if err := parseLenient(string(data), &f); err != nil {
		return fmt.Errorf("parse overrides %s: %w", path, err)
	}
	if s.Profiles == nil {
		s.Profiles = map[string]ProfileSettings{}
	}
	for name, p := range f.Profiles {
		s.Profiles[name] = p
	}
	return nil
}

// parseLenient tries strict JSON, then json-repair, then Hjson.
func parseLenient(input string, v any) error {
	if err := json.Unmarshal([]byte(input), v); err == nil {
		return nil
	}

	if repaired, err := jsonrepair.RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return nil
		}
	}

	var generic any
	if err := hjson.Unmarshal([]byte(input), &generic); err != nil {
		return fmt.Errorf("not JSON or Hjson: %w", err)
	}
	// Round-trip through encoding/json so the json tags apply.
	b, err := json.Marshal(generic)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
