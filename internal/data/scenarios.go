package data

import (
	"os"
	"path/filepath"
	"sort"
)

// ScenarioInfo describes one scenario directory under the data root.
type ScenarioInfo struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Files    []string `json:"files"`
	Complete bool     `json:"complete"`
}

var requiredFiles = []string{ApplianceParamsFile, UsagePreferenceFile, DERProductionFile, BusParamsFile}

// ListScenarios returns every sub-directory of dataDir, sorted by name.
// A scenario is Complete when all input files are present.
func ListScenarios(dataDir string) ([]ScenarioInfo, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, err
	}
	out := []ScenarioInfo{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(dataDir, e.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		info := ScenarioInfo{Name: e.Name(), Path: dir}
		present := map[string]bool{}
		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
				continue
			}
			info.Files = append(info.Files, f.Name())
			present[f.Name()] = true
		}
		info.Complete = present[ConsumerParamsFile] || present[ConsumersFile]
		for _, name := range requiredFiles {
			info.Complete = info.Complete && present[name]
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetDefaultDataDir returns the data root.
func GetDefaultDataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}
