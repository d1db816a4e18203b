package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/lu-zhengda/smartmail/internal/store"
)

// DefaultProfileName is created on first run.
const DefaultProfileName = "default"

// ResolveProfile picks the profile to use. An explicit name wins, then the
// profile marked default, then the oldest. With no profiles at all a
// "default" profile pointing at baseURL is created.
func ResolveProfile(ctx context.Context, st store.Store, name, baseURL string) (*store.Profile, error) {
	if name != "" {
		p, err := st.GetProfile(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("profile %q does not exist; add it with `smartmail profile add`", name)
		}
		return p, err
	}

	profiles, err := st.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].IsDefault {
			return &profiles[i], nil
		}
	}
	if len(profiles) > 0 {
		return &profiles[0], nil
	}

	p := &store.Profile{Name: DefaultProfileName, BaseURL: baseURL, IsDefault: true}
	if err := st.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
