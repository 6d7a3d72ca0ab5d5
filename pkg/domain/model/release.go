package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Repository is the owner/name pair releases are published to
type Repository struct {
	Owner string
	Name  string
}

// ParseRepository parses "owner/name"
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, goerr.New("repository must be owner/name", goerr.V("repository", s), goerr.T(ErrTagInvalidInput))
	}
	return Repository{Owner: owner, Name: name}, nil
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}
