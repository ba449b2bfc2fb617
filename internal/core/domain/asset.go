package domain

import (
	"fmt"
	"strings"
)

// AssetRef uniquely identifies an asset as a (collection, token) pair. It is
// immutable once an operation begins.
type AssetRef struct {
	Collection string
	TokenID    string
}

func (a *AssetRef) FromString(s string) error {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid asset reference string: %s", s)
	}
	a.Collection = parts[0]
	a.TokenID = parts[1]
	return nil
}

func (a AssetRef) String() string {
	return fmt.Sprintf("%s:%s", a.Collection, a.TokenID)
}

func (a AssetRef) IsZero() bool {
	return a.Collection == "" || a.TokenID == ""
}

// MintParams carries the metadata handed to the external minting collaborator.
type MintParams struct {
	Collection  string
	MetadataURI string
}
