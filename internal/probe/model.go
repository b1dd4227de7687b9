package probe

import "os"

// Model reports presence of the configured speech model file. An unconfigured
// path passes: the service's built-in default is assumed valid.
func (s *Set) Model() Result {
	path := s.cfg.Model.Path
	if path == "" {
		return Yes("default model")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return No("model file missing: " + path)
		}
		return Unknown(err.Error())
	}
	return Yes(path)
}
