package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"gym_tracker_echo/internal/models"
	"gym_tracker_echo/internal/services"
	"gym_tracker_echo/web/templates/shared"
)

func TestErrorPage(t *testing.T) {
	tests := []struct {
		name  string
		props ErrorPageProps
		want  []string
	}{
		{
			name:  "default back link",
			props: ErrorPageProps{Title: "Not found", ErrorTitle: "Not found", ErrorMessage: "no such <session>"},
			want: []string{
				"<title>Not found | Gym Tracker</title>",
				"<h1>Not found</h1>",
				"no such &lt;session&gt;",
				`<a class="btn" href="/dashboard">Back to dashboard</a>`,
			},
		},
		{
			name: "custom back link and breadcrumbs",
			props: ErrorPageProps{
				Title:       "Oops",
				ErrorTitle:  "Oops",
				BackLink:    "/history/sessions",
				BackText:    "Back to history",
				UserEmail:   "ann@example.com",
				Breadcrumbs: []shared.Breadcrumb{{Title: "Home", URL: "/dashboard"}, {Title: "Error"}},
			},
			want: []string{
				`href="/history/sessions">Back to history</a>`,
				`<span class="nav-user">ann@example.com</span>`,
				`<li class="breadcrumb-item"><a href="/dashboard">Home</a></li>`,
				`<li class="breadcrumb-item active">Error</li>`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := ErrorPage(tt.props).Render(context.Background(), &buf); err != nil {
				t.Fatalf("render: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("page lacks %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestDashboard(t *testing.T) {
	props := DashboardProps{
		Title:     "Dashboard",
		ActiveNav: "dashboard",
		Summary:   []services.SummaryRow{{DurationMinutes: 60, NumPeople: 2, SessionsRemaining: 4}},
		RecentSessions: []services.SessionView{{
			Session: models.Session{
				SessionDate:     time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC),
				DurationMinutes: 60,
				Trainer:         "Rachel",
			},
			PartnerName:       "Bob & Co",
			PurchaseExhausted: true,
		}},
	}

	var buf bytes.Buffer
	if err := Dashboard(props).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := buf.String()
	for _, want := range []string{
		`<a class="nav-link active" href="/dashboard">Dashboard</a>`,
		"<td>60 min</td><td>2</td><td>4</td>",
		"<td>2026-03-02 10:30</td><td>Rachel</td>",
		"Bob &amp; Co",
		`<span class="badge">pack used up</span>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard lacks %q:\n%s", want, body)
		}
	}

	var empty bytes.Buffer
	if err := Dashboard(DashboardProps{Title: "Dashboard"}).Render(context.Background(), &empty); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if !strings.Contains(empty.String(), "No packs yet.") || !strings.Contains(empty.String(), "No sessions logged.") {
		t.Errorf("empty dashboard = %s", empty.String())
	}
}
