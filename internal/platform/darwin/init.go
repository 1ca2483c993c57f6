//go:build darwin && cgo

package darwin

import "github.com/tidybar/tidybar/internal/platform"

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		return &platform.Provider{
			Reader:      NewReader(),
			Windows:     NewWindowServer(),
			Input:       NewInput(),
			UI:          NewUIState(),
			Permissions: NewPermissions(),
			OwnBundleID: ownBundleID(),
		}, nil
	}
}
