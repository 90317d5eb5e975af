package models

import "testing"

func TestTableNames(t *testing.T) {
	if got := (Issue{}).TableName(); got != "issues" {
		t.Fatalf("unexpected Issue table name: %s", got)
	}
	if got := (CopilotPayment{}).TableName(); got != "copilot_payments" {
		t.Fatalf("unexpected CopilotPayment table name: %s", got)
	}
	if got := (Project{}).TableName(); got != "projects" {
		t.Fatalf("unexpected Project table name: %s", got)
	}
}
