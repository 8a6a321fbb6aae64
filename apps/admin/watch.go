package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/trezcool/examprep/core/access"
)

type section struct {
	title string
	c     access.Constraints
}

var dashboard = []section{
	{title: "Practice exams", c: access.Constraints{Permission: access.PermExamTake}},
	{title: "My results", c: access.Constraints{Permission: access.PermResultView}},
	{title: "Question bank", c: access.Constraints{AnyOf: []access.Permission{access.PermQuestionCreate, access.PermQuestionEdit}}},
	{title: "Class analytics", c: access.Constraints{AllOf: []access.Permission{access.PermStudentView, access.PermAnalyticsView}}},
	{title: "Roles", c: access.Constraints{Permission: access.PermRoleView}},
	{title: "Settings", c: access.Constraints{Role: access.RoleAdmin}},
}

// renderDashboard renders the dashboard of st, one line per section.
func renderDashboard(st access.State) string {
	var b strings.Builder
	switch {
	case st.IsLoading:
		b.WriteString("loading...\n")
		return b.String()
	case st.User == nil:
		b.WriteString("signed out\n")
	default:
		fmt.Fprintf(&b, "%s (%s)\n", st.User.Email, st.User.Role)
	}
	if st.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", st.Error)
	}

	for _, s := range dashboard {
		gate := access.Gate[string]{
			Constraints: s.c,
			Fallback:    func() string { return "  [ ] " + s.title + "\n" },
		}
		b.WriteString(gate.Render(st, func() string { return "  [x] " + s.title + "\n" }))
	}

	if st.User != nil && st.User.Role == access.RoleStudent {
		tiers := access.WithGuard(st, renderTiers, access.Constraints{Permission: access.PermExamView}, nil)
		b.WriteString(tiers(st.User))
	}
	return b.String()
}

func renderTiers(usr *access.User) string {
	if usr.Package == "" {
		return "  package: none\n"
	}
	return fmt.Sprintf("  package: %s\n", usr.Package)
}

// watch prints the dashboard of clientID, then on every change when follow is set, until ctx is done.
func (cli *commandLine) watch(ctx context.Context, clientID string, follow bool) error {
	store, _ := cli.clt.NewStore(clientID)
	defer store.Close()

	var mu sync.Mutex
	show := func(st access.State) {
		mu.Lock()
		defer mu.Unlock()
		writeDashboard(cli.out, clientID, st)
	}

	if follow {
		unsubscribe := store.Subscribe(func(st access.State) {
			if !st.IsLoading {
				show(st)
			}
		})
		defer unsubscribe()
	}

	store.Initialize(ctx)
	if !follow {
		show(store.Snapshot())
		return nil
	}

	<-ctx.Done()
	return nil
}

func writeDashboard(w io.Writer, clientID string, st access.State) {
	_, _ = fmt.Fprintf(w, "== client %s ==\n%s", clientID, renderDashboard(st))
}
