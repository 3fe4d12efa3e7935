package services

import (
	"testing"

	"triagent/internal/models"
)

func cls(category, priority string) *models.Classification {
	return &models.Classification{Category: category, Priority: priority, Notes: "n"}
}

func TestBuildSummary_EmptyBatch(t *testing.T) {
	if got := BuildSummary(nil, nil); got != EmptyBatchSummary {
		t.Fatalf("got %q, want %q", got, EmptyBatchSummary)
	}
	if got := BuildSummary([]models.Ticket{}, []*models.Classification{}); got != EmptyBatchSummary {
		t.Fatalf("got %q, want %q", got, EmptyBatchSummary)
	}
}

func TestBuildSummary_AllFailed(t *testing.T) {
	tickets := []models.Ticket{{Title: "a"}, {Title: "b"}}
	results := []*models.Classification{nil, nil}

	want := "Processed 0 out of 2 tickets. 2 tickets failed processing. Priorities: 0 high, 0 medium, 0 low."
	if got := BuildSummary(tickets, results); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildSummary_FullBatch(t *testing.T) {
	tickets := []models.Ticket{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	results := []*models.Classification{
		cls("bug", "high"),
		cls("bug", "medium"),
		cls("billing", "low"),
	}

	// Categories are listed alphabetically, priorities in fixed high/medium/low order.
	want := "Processed 3 out of 3 tickets. Categories: 1 billing, 2 bug. " +
		"Priorities: 1 high, 1 medium, 1 low. Most common issue: bug (2 tickets)."
	if got := BuildSummary(tickets, results); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildSummary_PartialFailure(t *testing.T) {
	tickets := []models.Ticket{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	results := []*models.Classification{
		cls("authentication", "high"),
		nil,
		cls("other", "medium"),
	}

	want := "Processed 2 out of 3 tickets. 1 tickets failed processing. " +
		"Categories: 1 authentication, 1 other. Priorities: 1 high, 1 medium, 0 low. " +
		"Most common issue: authentication (1 tickets)."
	if got := BuildSummary(tickets, results); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildSummary_TieBreakFirstSeen(t *testing.T) {
	tickets := []models.Ticket{{Title: "a"}, {Title: "b"}, {Title: "c"}, {Title: "d"}}
	results := []*models.Classification{
		cls("other", "low"),
		cls("billing", "low"),
		cls("other", "low"),
		cls("billing", "low"),
	}

	// "other" appeared first, so on a 2-2 tie it stays the most common issue
	// even though "billing" sorts earlier alphabetically.
	want := "Processed 4 out of 4 tickets. Categories: 2 billing, 2 other. " +
		"Priorities: 0 high, 0 medium, 4 low. Most common issue: other (2 tickets)."
	if got := BuildSummary(tickets, results); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildSummary_UnknownPriorityNotCounted(t *testing.T) {
	tickets := []models.Ticket{{Title: "a"}}
	results := []*models.Classification{cls("bug", "blocker")}

	want := "Processed 1 out of 1 tickets. Categories: 1 bug. " +
		"Priorities: 0 high, 0 medium, 0 low. Most common issue: bug (1 tickets)."
	if got := BuildSummary(tickets, results); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
