package services

import (
	"testing"
)

func TestClassifyByKeywords_Categories(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		category    string
		priority    string
	}{
		{
			name:        "billing normal",
			title:       "Question about my invoice",
			description: "I was charged twice this month",
			category:    "billing",
			priority:    "medium",
		},
		{
			name:        "billing escalated",
			title:       "Payment failed",
			description: "Need this fixed asap, client demo tomorrow",
			category:    "billing",
			priority:    "high",
		},
		{
			name:        "bug normal",
			title:       "Export button broken",
			description: "Clicking export does nothing",
			category:    "bug",
			priority:    "medium",
		},
		{
			name:        "bug critical",
			title:       "App crashes on startup",
			description: "Happens every time since the last update",
			category:    "bug",
			priority:    "high",
		},
		{
			name:        "feature request",
			title:       "Feature suggestion",
			description: "Please consider a dark theme option",
			category:    "feature_request",
			priority:    "low",
		},
		{
			name:        "authentication",
			title:       "Cannot login to my account",
			description: "My password is rejected on every attempt",
			category:    "authentication",
			priority:    "high",
		},
		{
			name:        "no match falls through to other",
			title:       "General question",
			description: "How do I contact the sales team?",
			category:    "other",
			priority:    "medium",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyByKeywords(tt.title, tt.description)
			if got.Category != tt.category {
				t.Fatalf("category = %q, want %q", got.Category, tt.category)
			}
			if got.Priority != tt.priority {
				t.Fatalf("priority = %q, want %q", got.Priority, tt.priority)
			}
			if got.Notes != KeywordNotes {
				t.Fatalf("notes = %q, want %q", got.Notes, KeywordNotes)
			}
		})
	}
}

func TestClassifyByKeywords_RuleOrder(t *testing.T) {
	// Billing wins over bug when both keyword sets match.
	got := ClassifyByKeywords("Billing page error", "The invoice view shows an error")
	if got.Category != "billing" {
		t.Fatalf("category = %q, want billing", got.Category)
	}

	// Bug wins over authentication: "crash" matches before "login" is considered.
	got = ClassifyByKeywords("App crashes on login", "Crash on the login screen every time")
	if got.Category != "bug" {
		t.Fatalf("category = %q, want bug", got.Category)
	}
	if got.Priority != "high" {
		t.Fatalf("priority = %q, want high", got.Priority)
	}
}

func TestClassifyByKeywords_EscalationScopedToBranch(t *testing.T) {
	// "urgent" escalates billing tickets but not bug tickets.
	got := ClassifyByKeywords("Checkout is broken", "This is urgent, customers cannot buy")
	if got.Category != "bug" {
		t.Fatalf("category = %q, want bug", got.Category)
	}
	if got.Priority != "medium" {
		t.Fatalf("priority = %q, want medium (urgent must not escalate bug tickets)", got.Priority)
	}
}

func TestClassifyByKeywords_Deterministic(t *testing.T) {
	title, desc := "Subscription renewal", "Charge appeared twice, please check urgently... urgent!"
	first := ClassifyByKeywords(title, desc)
	for i := 0; i < 10; i++ {
		got := ClassifyByKeywords(title, desc)
		if got != first {
			t.Fatalf("run %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestClassifyByKeywords_CaseInsensitive(t *testing.T) {
	upper := ClassifyByKeywords("INVOICE PROBLEM", "URGENT CHARGE ISSUE")
	lower := ClassifyByKeywords("invoice problem", "urgent charge issue")
	if upper != lower {
		t.Fatalf("case should not matter: %+v vs %+v", upper, lower)
	}
	if upper.Category != "billing" || upper.Priority != "high" {
		t.Fatalf("got %+v, want billing/high", upper)
	}
}
