package main

import (
	"strings"
	"testing"

	"github.com/taskdeck/backend/domain"
)

func TestParseAddFlagsDefaults(t *testing.T) {
	req, err := parseAddFlags([]string{"-title", "Buy milk", "-category", "errand"})
	if err != nil {
		t.Fatalf("parseAddFlags failed: %v", err)
	}
	if req.Title != "Buy milk" || req.Category != "errand" {
		t.Errorf("Flags not mapped: %+v", req)
	}
	if req.Priority != domain.PriorityMedium {
		t.Errorf("Expected default priority medium, got %q", req.Priority)
	}
	if req.Status != domain.StatusTodo {
		t.Errorf("Expected default status todo, got %q", req.Status)
	}
	if req.DueDate != "" {
		t.Errorf("Unset due date mapped to %q", req.DueDate)
	}
}

func TestParseAddFlagsEnumRejection(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"Bad priority", []string{"-title", "x", "-category", "y", "-priority", "urgent"}, "priority"},
		{"Bad status", []string{"-title", "x", "-category", "y", "-status", "done"}, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAddFlags(tt.args)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected %s error, got %v", tt.want, err)
			}
		})
	}
}

func TestParseUpdateFlagsOnlyVisited(t *testing.T) {
	id, req, err := parseUpdateFlags([]string{"-status", "completed", "task-1"})
	if err != nil {
		t.Fatalf("parseUpdateFlags failed: %v", err)
	}
	if id != "task-1" {
		t.Errorf("Expected id task-1, got %q", id)
	}
	if req.Status == nil || *req.Status != domain.StatusCompleted {
		t.Errorf("Status not mapped: %+v", req)
	}
	if req.Title != nil || req.Description != nil || req.Category != nil ||
		req.Priority != nil || req.DueDate != nil {
		t.Errorf("Unsupplied flags populated the request: %+v", req)
	}
}

func TestParseUpdateFlagsEmptyDueClears(t *testing.T) {
	_, req, err := parseUpdateFlags([]string{"-due", "", "task-1"})
	if err != nil {
		t.Fatalf("parseUpdateFlags failed: %v", err)
	}
	if req.DueDate == nil || *req.DueDate != "" {
		t.Errorf("Explicit empty due date not sent as a clear: %+v", req.DueDate)
	}
}

func TestParseUpdateFlagsEnumRejection(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"Bad priority", []string{"-priority", "urgent", "task-1"}},
		{"Bad status", []string{"-status", "done", "task-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parseUpdateFlags(tt.args); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestParseUpdateFlagsRequiresID(t *testing.T) {
	if _, _, err := parseUpdateFlags([]string{"-title", "x"}); err == nil {
		t.Error("Expected an error without a task id")
	}
	if _, _, err := parseUpdateFlags([]string{"-title", "x", "task-1", "task-2"}); err == nil {
		t.Error("Expected an error with two task ids")
	}
}

func TestTaskID(t *testing.T) {
	if id, err := taskID([]string{"task-1"}); err != nil || id != "task-1" {
		t.Errorf("Expected task-1, got %q (%v)", id, err)
	}
	for _, args := range [][]string{nil, {}, {""}, {"a", "b"}} {
		if _, err := taskID(args); err == nil {
			t.Errorf("Expected an error for %v", args)
		}
	}
}
