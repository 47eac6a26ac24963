package yenista

import (
	"fmt"
	"strings"

	"github.com/iwtcode/ct400Adapter/yenista/model"
	"github.com/iwtcode/ct400Adapter/yenista/simulator"
)

const (
	BackendDLL       = "dll"
	BackendSimulator = "simulator"
)

// OpenLibrary выбирает реализацию CT400_lib по имени бэкенда.
// Для симулятора profilePath указывает YAML-профиль (пусто - профиль по умолчанию).
func OpenLibrary(backend, profilePath string) (model.Library, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendDLL:
		return OpenDLL()
	case BackendSimulator, "sim", "":
		profile, err := simulator.LoadProfile(profilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load simulator profile: %w", err)
		}
		return simulator.New(profile), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidArgument, backend)
	}
}
