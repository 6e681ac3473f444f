package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]Status{
		"progress":    StatusInProgress,
		"in_progress": StatusInProgress,
		"in-progress": StatusInProgress,
		"진행중":         StatusInProgress,
		"진행 중":        StatusInProgress,
		"completed":   StatusCompleted,
		"완료":          StatusCompleted,
		"":            StatusPending,
		"pending":     StatusPending,
		"대기":          StatusPending,
		"대기중":         StatusPending,
		"  완료  ":      StatusCompleted,
		"garbage":     StatusPending,
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeStatus(raw), "raw=%q", raw)
	}
}
