package logsvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/examprep/core/access"
	"github.com/trezcool/examprep/core/user"
)

func TestPerson(t *testing.T) {
	var nilUsr *access.User
	tests := []struct {
		name      string
		arg       interface{}
		wantID    string
		wantName  string
		wantEmail string
		wantOK    bool
	}{
		{name: "user", arg: user.User{ID: "u1", Name: "Ada", Email: "ada@x.io"}, wantID: "u1", wantName: "Ada", wantEmail: "ada@x.io", wantOK: true},
		{name: "identity", arg: access.User{ID: "u2", Email: "bob@x.io"}, wantID: "u2", wantName: "bob@x.io", wantEmail: "bob@x.io", wantOK: true},
		{name: "identity pointer", arg: &access.User{ID: "u3", Email: "c@x.io"}, wantID: "u3", wantName: "c@x.io", wantEmail: "c@x.io", wantOK: true},
		{name: "nil identity pointer", arg: nilUsr},
		{name: "error", arg: errors.New("boom")},
		{name: "map", arg: map[string]interface{}{"k": "v"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, name, email, ok := person(tc.arg)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantID, id)
			assert.Equal(t, tc.wantName, name)
			assert.Equal(t, tc.wantEmail, email)
		})
	}
}
