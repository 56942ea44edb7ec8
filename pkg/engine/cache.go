package engine

import (
	"encoding/gob"
	"os"
)

// CacheName is the file the parsed rule set is cached in, relative to the
// project root.
const CacheName = ".smake.cache"

func init() {
	gob.Register(&RuleSet{})
	gob.Register(Target{})
	gob.Register(CmdScript{})
	gob.Register(CmdTargetRef{})
}

// WriteCache stores the option values and the parsed rule set so later
// invocations can skip the script evaluation.
func WriteCache(file string, options map[string]string, rules *RuleSet) error {
	handle, err := os.Create(file)
	if err != nil {
		return err
	}
	defer handle.Close()

	encoder := gob.NewEncoder(handle)
	err = encoder.Encode(options)
	if err != nil {
		return err
	}

	return encoder.Encode(rules)
}

// ReadCache loads a cache written by WriteCache.
func ReadCache(file string) (map[string]string, *RuleSet, error) {
	handle, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	defer handle.Close()

	decoder := gob.NewDecoder(handle)

	var options map[string]string
	err = decoder.Decode(&options)
	if err != nil {
		return nil, nil, err
	}

	var result *RuleSet
	err = decoder.Decode(&result)
	if err != nil {
		return options, nil, err
	}

	return options, result, nil
}

// CacheFresh reports whether the cache file is newer than the rule script.
// This is the same mtime comparison the engine applies to build targets,
// turned on its own bookkeeping.
func CacheFresh(cacheFile, scriptFile string) bool {
	cacheInfo, err := os.Stat(cacheFile)
	if err != nil {
		return false
	}

	scriptInfo, err := os.Stat(scriptFile)
	if err != nil {
		return false
	}

	return cacheInfo.ModTime().After(scriptInfo.ModTime())
}
